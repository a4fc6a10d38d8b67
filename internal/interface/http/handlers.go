package http

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/schoolhub/school-hub/internal/application/authz"
	"github.com/schoolhub/school-hub/internal/application/command"
	"github.com/schoolhub/school-hub/internal/application/query"
	"github.com/schoolhub/school-hub/internal/domain/access"
	"github.com/schoolhub/school-hub/internal/domain/shared"
	"github.com/schoolhub/school-hub/internal/domain/user"
	"github.com/schoolhub/school-hub/internal/interface/http/handlers"
	"github.com/schoolhub/school-hub/pkg/logger"
	"github.com/schoolhub/school-hub/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// REQUEST BODIES
// ══════════════════════════════════════════════════════════════════════════════

type registerRequest struct {
	Name     string `json:"name" validate:"notblank,max=100"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
	Role     string `json:"role" validate:"role"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type createStudentRequest struct {
	Name      string `json:"name" validate:"notblank,max=100"`
	RollNo    string `json:"rollNo" validate:"notblank,max=30"`
	ClassName string `json:"className" validate:"notblank"`
	Division  string `json:"division" validate:"notblank"`
	ParentID  string `json:"parentId"`
	// YYYY-MM-DD
	DOB string `json:"dob" validate:"omitempty,datetime=2006-01-02"`
}

type submitResultRequest struct {
	StudentID    string   `json:"studentId" validate:"notblank"`
	Subject      string   `json:"subject" validate:"notblank,max=100"`
	ExamType     string   `json:"examType" validate:"exam_type"`
	AcademicYear int      `json:"academicYear" validate:"required"`
	Marks        *float64 `json:"marks" validate:"required"`
	TotalMarks   *float64 `json:"totalMarks"`
}

type promoteRequest struct {
	StudentID string `json:"studentId"`
	Year      *int   `json:"year"`
}

// userView is the public shape of a user account.
type userView struct {
	ID               string    `json:"id"`
	Name             string    `json:"name"`
	Email            string    `json:"email"`
	Role             string    `json:"role"`
	LinkedStudentIDs []string  `json:"linkedStudentIds"`
	CreatedAt        time.Time `json:"createdAt"`
}

func newUserView(u *user.User) userView {
	linked := u.LinkedStudentIDs
	if linked == nil {
		linked = []string{}
	}
	return userView{
		ID:               u.ID,
		Name:             u.Name,
		Email:            u.Email,
		Role:             u.Role.String(),
		LinkedStudentIDs: linked,
		CreatedAt:        u.CreatedAt,
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// HEALTH & STATUS HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

// handleHealth handles the health check endpoint.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.deps.HealthChecker != nil {
		status := s.deps.HealthChecker.Check(r.Context())
		code := http.StatusOK
		if !status.Healthy {
			code = http.StatusServiceUnavailable
		}
		writeJSON(w, r, code, status)
		return
	}

	writeJSON(w, r, http.StatusOK, map[string]any{
		"status":  "healthy",
		"uptime":  s.Uptime().String(),
		"version": s.config.Version,
	})
}

// handleReady handles the readiness endpoint.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.deps.HealthChecker != nil {
		status := s.deps.HealthChecker.Check(r.Context())
		if !status.Ready {
			writeJSONError(w, r, http.StatusServiceUnavailable, "not_ready", status.Message, status.Checks)
			return
		}
	}

	writeJSON(w, r, http.StatusOK, map[string]string{"status": "ready"})
}

// handleLive handles the liveness endpoint.
func (s *Server) handleLive(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, map[string]string{"status": "alive"})
}

// ══════════════════════════════════════════════════════════════════════════════
// AUTH HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

// handleRegister handles POST /api/v1/auth/register
func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if !s.decodeAndValidate(w, r, &req, false) {
		return
	}

	u, err := s.deps.RegisterUser.Handle(r.Context(), command.RegisterUserCommand{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Role:     req.Role,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusCreated, newUserView(u))
}

// handleLogin handles POST /api/v1/auth/login
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !s.decodeAndValidate(w, r, &req, false) {
		return
	}

	out, err := s.deps.LoginUser.Handle(r.Context(), command.LoginUserCommand{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusOK, out)
}

// handleMe handles GET /api/v1/auth/me
func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	p := principal(r)
	writeJSON(w, r, http.StatusOK, map[string]string{
		"userId": p.UserID,
		"role":   p.Role.String(),
	})
}

// ══════════════════════════════════════════════════════════════════════════════
// STUDENT HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

// handleCreateStudent handles POST /api/v1/students
func (s *Server) handleCreateStudent(w http.ResponseWriter, r *http.Request) {
	if !s.authorize(w, r, access.OpStudentCreate, "") {
		return
	}

	var req createStudentRequest
	if !s.decodeAndValidate(w, r, &req, false) {
		return
	}

	cmd := command.CreateStudentCommand{
		Name:      req.Name,
		RollNo:    req.RollNo,
		ClassName: req.ClassName,
		Division:  req.Division,
		ParentID:  strings.TrimSpace(req.ParentID),
	}
	if req.DOB != "" {
		dob, err := time.Parse(time.DateOnly, req.DOB)
		if err != nil {
			s.writeError(w, r, shared.Validation("student", "Create", "dob must be YYYY-MM-DD"))
			return
		}
		cmd.DOB = &dob
	}

	out, err := s.deps.CreateStudent.Handle(r.Context(), cmd)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	status := http.StatusOK
	if out.Created {
		status = http.StatusCreated
	}
	writeJSON(w, r, status, query.NewStudentDTO(out.Student))
}

// handleListStudents handles GET /api/v1/students?className=&division=
func (s *Server) handleListStudents(w http.ResponseWriter, r *http.Request) {
	visible, err := s.deps.Authorizer.VisibleStudentIDs(r.Context(), principal(r))
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	q := r.URL.Query()
	students, err := s.deps.ListStudents.Handle(r.Context(), query.ListStudentsQuery{
		ClassName: q.Get("className"),
		Division:  q.Get("division"),
		OnlyIDs:   visible,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusOK, students)
}

// ══════════════════════════════════════════════════════════════════════════════
// PROMOTION HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

// handlePromoteAuto handles POST /api/v1/students/promote/auto
func (s *Server) handlePromoteAuto(w http.ResponseWriter, r *http.Request) {
	if !s.authorize(w, r, access.OpPromotionAuto, "") {
		return
	}

	var req promoteRequest
	if !s.decodeAndValidate(w, r, &req, true) {
		return
	}

	year := timeutil.CurrentYear(s.deps.Clock)
	if req.Year != nil {
		year = *req.Year
	}

	report, err := s.deps.RunAutoPromotion.Handle(r.Context(), command.RunAutoPromotionCommand{Year: year})
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	logger.FromContext(r.Context()).Info("automatic promotion completed",
		logger.UserID(principal(r).UserID),
		logger.Year(report.Year),
		logger.Int("promoted", report.PromotedCount),
		logger.Int("skipped", report.SkippedCount),
	)

	writeJSON(w, r, http.StatusOK, report)
}

// handlePromoteManual handles POST /api/v1/students/promote/manual
func (s *Server) handlePromoteManual(w http.ResponseWriter, r *http.Request) {
	var req promoteRequest
	if !s.decodeAndValidate(w, r, &req, false) {
		return
	}
	s.promoteManually(w, r, req.StudentID, req.Year)
}

// handlePromoteByPath handles POST /api/v1/students/promote/{id}
func (s *Server) handlePromoteByPath(w http.ResponseWriter, r *http.Request) {
	var req promoteRequest
	if !s.decodeAndValidate(w, r, &req, true) {
		return
	}
	s.promoteManually(w, r, r.PathValue("id"), req.Year)
}

func (s *Server) promoteManually(w http.ResponseWriter, r *http.Request, studentID string, year *int) {
	if !s.authorize(w, r, access.OpPromotionManual, studentID) {
		return
	}

	out, err := s.deps.PromoteStudent.Handle(r.Context(), command.PromoteStudentCommand{
		StudentID: strings.TrimSpace(studentID),
		Year:      year,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	logger.FromContext(r.Context()).Info("student promoted manually",
		logger.UserID(principal(r).UserID),
		logger.StudentID(out.StudentID),
		logger.String("from_class", out.FromClass),
		logger.String("to_class", out.ToClass),
		logger.Year(out.Year),
	)

	writeJSON(w, r, http.StatusOK, out)
}

// ══════════════════════════════════════════════════════════════════════════════
// RESULT HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

// handleSubmitResult handles POST /api/v1/results
func (s *Server) handleSubmitResult(w http.ResponseWriter, r *http.Request) {
	if !s.authorize(w, r, access.OpResultSubmit, "") {
		return
	}

	var req submitResultRequest
	if !s.decodeAndValidate(w, r, &req, false) {
		return
	}

	res, err := s.deps.SubmitResult.Handle(r.Context(), command.SubmitResultCommand{
		StudentID:    strings.TrimSpace(req.StudentID),
		Subject:      req.Subject,
		ExamType:     req.ExamType,
		AcademicYear: req.AcademicYear,
		Marks:        *req.Marks,
		TotalMarks:   req.TotalMarks,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusOK, query.NewResultDTO(res))
}

// handleLeaderboard handles GET /api/v1/results/leaderboard/{studentId}
func (s *Server) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	studentID := r.PathValue("studentId")
	if !s.authorize(w, r, access.OpLeaderboardView, studentID) {
		return
	}

	q := r.URL.Query()
	payload, err := s.deps.GetClassLeaderboard.Handle(r.Context(), query.GetClassLeaderboardQuery{
		StudentID:    studentID,
		ExamType:     q.Get("examType"),
		AcademicYear: q.Get("academicYear"),
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusOK, payload)
}

// handleChildResults handles GET /api/v1/results/parent/{studentId}
func (s *Server) handleChildResults(w http.ResponseWriter, r *http.Request) {
	studentID := r.PathValue("studentId")
	if !s.authorize(w, r, access.OpResultChild, studentID) {
		return
	}
	s.listResults(w, r, studentID)
}

// handleStudentResults handles GET /api/v1/results/{studentId}
func (s *Server) handleStudentResults(w http.ResponseWriter, r *http.Request) {
	studentID := r.PathValue("studentId")
	if !s.authorize(w, r, access.OpResultList, studentID) {
		return
	}
	s.listResults(w, r, studentID)
}

func (s *Server) listResults(w http.ResponseWriter, r *http.Request, studentID string) {
	out, err := s.deps.ListResults.Handle(r.Context(), query.ListResultsQuery{StudentID: studentID})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, out)
}

// ══════════════════════════════════════════════════════════════════════════════
// REQUEST HELPERS
// ══════════════════════════════════════════════════════════════════════════════

// principal returns the caller set by the bearer middleware.
func principal(r *http.Request) authz.Principal {
	p, _ := handlers.PrincipalFromContext(r.Context())
	return p
}

// authorize writes the error response and returns false when the caller may not perform op.
func (s *Server) authorize(w http.ResponseWriter, r *http.Request, op access.Operation, studentID string) bool {
	if err := s.deps.Authorizer.Authorize(r.Context(), principal(r), op, studentID); err != nil {
		s.writeError(w, r, err)
		return false
	}
	return true
}

// decodeAndValidate decodes a JSON body into dst and validates it.
// allowEmpty accepts a missing body and leaves dst untouched.
func (s *Server) decodeAndValidate(w http.ResponseWriter, r *http.Request, dst any, allowEmpty bool) bool {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) && allowEmpty {
			return true
		}
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeJSONError(w, r, http.StatusRequestEntityTooLarge, "payload_too_large", "Request body too large", nil)
			return false
		}
		writeJSONError(w, r, http.StatusBadRequest, "invalid_json", "Request body is not valid JSON", err.Error())
		return false
	}

	if err := s.validator.Struct(dst); err != nil {
		s.writeError(w, r, err)
		return false
	}
	return true
}

// ══════════════════════════════════════════════════════════════════════════════
// ERROR MAPPING
// ══════════════════════════════════════════════════════════════════════════════

// writeError maps domain error kinds to HTTP statuses.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var fieldErrs *handlers.FieldErrors
	switch {
	case errors.As(err, &fieldErrs):
		writeJSONError(w, r, http.StatusBadRequest, "validation_error", "Request validation failed", fieldErrs.Fields)
	case shared.IsValidation(err):
		writeJSONError(w, r, http.StatusBadRequest, "validation_error", errorMessage(err), nil)
	case shared.IsUnauthorized(err):
		writeJSONError(w, r, http.StatusUnauthorized, "unauthorized", errorMessage(err), nil)
	case shared.IsForbidden(err):
		writeJSONError(w, r, http.StatusForbidden, "forbidden", errorMessage(err), nil)
	case shared.IsNotFound(err):
		writeJSONError(w, r, http.StatusNotFound, "not_found", errorMessage(err), nil)
	case shared.IsAlreadyExists(err):
		writeJSONError(w, r, http.StatusConflict, "already_exists", errorMessage(err), nil)
	case shared.IsConflict(err):
		writeJSONError(w, r, http.StatusConflict, "conflict", errorMessage(err), nil)
	case shared.IsInvalidState(err):
		writeJSONError(w, r, http.StatusUnprocessableEntity, "invalid_state", errorMessage(err), nil)
	default:
		logger.FromContext(r.Context()).Error("request failed",
			logger.Err(err),
			logger.String("path", r.URL.Path),
		)
		writeJSONError(w, r, http.StatusInternalServerError, "internal_error", "An unexpected error occurred", nil)
	}
}

// writeUnauthorized is the bearer middleware's error writer.
func (s *Server) writeUnauthorized(w http.ResponseWriter, r *http.Request, err error) {
	logger.FromContext(r.Context()).Debug("authentication failed", logger.Err(err), logger.String("path", r.URL.Path))
	writeJSONError(w, r, http.StatusUnauthorized, "unauthorized", "Missing or invalid bearer token", nil)
}

// errorMessage returns the user-facing message of a domain error.
func errorMessage(err error) string {
	var de *shared.DomainError
	if errors.As(err, &de) && de.Message != "" {
		return de.Message
	}
	return err.Error()
}
