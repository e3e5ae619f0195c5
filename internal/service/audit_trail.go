package service

import (
	"context"
	"strings"

	"github.com/noah-isme/sao-registrar-api/internal/auditlog"
	"github.com/noah-isme/sao-registrar-api/pkg/audit"
)

// UnknownPerformer is stamped when a request carries no identity.
const UnknownPerformer = "Unknown User"

// Actor is the authenticated identity performing an operation.
type Actor struct {
	ID    uint
	Email string
	Name  string
	Role  string
}

// Performer returns the identity recorded on audit documents.
func (a Actor) Performer() string {
	switch {
	case strings.TrimSpace(a.Email) != "":
		return a.Email
	case strings.TrimSpace(a.Name) != "":
		return a.Name
	default:
		return UnknownPerformer
	}
}

// AuditRecorder routes a server-side audit document. Implementations never
// fail the caller.
type AuditRecorder interface {
	LogAction(ctx context.Context, category audit.Category, doc auditlog.Document)
}

type auditAction struct {
	success string
	failure string
}

var (
	actionAddStudent        = auditAction{"ADD_STUDENT", "ADD_STUDENT_FAILED"}
	actionUpdateStudent     = auditAction{"UPDATE_STUDENT", "UPDATE_STUDENT_FAILED"}
	actionArchiveStudent    = auditAction{"ARCHIVE_STUDENT", "ARCHIVE_STUDENT_FAILED"}
	actionRestoreStudent    = auditAction{"RESTORE_STUDENT", "RESTORE_STUDENT_FAILED"}
	actionEnroll            = auditAction{"ENROLL_STUDENT", "ENROLL_FAILED"}
	actionArchiveEnrollment = auditAction{"ARCHIVE_ENROLLMENT", "ARCHIVE_ENROLLMENT_FAILED"}
	actionRestoreEnrollment = auditAction{"RESTORE_ENROLLMENT", "RESTORE_ENROLLMENT_FAILED"}
	actionUpdateGrade       = auditAction{"UPDATE_GRADE", "GRADE_UPDATE_FAILED"}
	actionAddProgram        = auditAction{"ADD_PROGRAM", "ADD_PROGRAM_FAILED"}
	actionAddCourse         = auditAction{"ADD_NEW_COURSE", "ADD_COURSE_FAILED"}
	actionAddCurriculum     = auditAction{"ADD_CURRICULUM", "ADD_CURRICULUM_FAILED"}
	actionCreateUser        = auditAction{"CREATE_USER", "CREATE_USER_FAILED"}
	actionLogin             = auditAction{"LOGIN", "LOGIN_FAILED"}
	actionLogout            = auditAction{"LOGOUT", "LOGOUT_FAILED"}
	actionViewTranscript    = auditAction{"VIEW_TRANSCRIPT", "VIEW_TRANSCRIPT_FAILED"}
	actionCheckGWA          = auditAction{"CHECK_GWA", "CHECK_GWA_FAILED"}
	actionViewDeansList     = auditAction{"VIEW_DEANS_LIST", "VIEW_DEANS_LIST_FAILED"}
)

// trail stamps the outcome of one operation onto its audit document.
type trail struct {
	recorder AuditRecorder
	category audit.Category
}

func (t trail) record(ctx context.Context, action auditAction, doc auditlog.Document, err error) {
	if t.recorder == nil {
		return
	}

	if err != nil {
		doc.Action = action.failure
		doc.Status = audit.OutcomeFailure
		doc.ErrorMessage = err.Error()
	} else {
		doc.Action = action.success
		doc.Status = audit.OutcomeSuccess
	}
	t.recorder.LogAction(ctx, t.category, doc)
}
