package testutil

import (
	"fmt"
	"net/http/httptest"
	"sort"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/noah-isme/courseforge-portal/internal/dto"
	"github.com/noah-isme/courseforge-portal/internal/models"
)

const (
	backendSecret = "courseforge-test-secret"
	timeLayout    = time.RFC3339
)

type account struct {
	user     models.User
	password string
}

// Backend is an in-memory CourseForge REST backend served over httptest.
type Backend struct {
	Server *httptest.Server

	mu          sync.Mutex
	now         func() time.Time
	tokenTTL    time.Duration
	nextID      uint
	accounts    map[uint]*account
	subjects    map[uint]*models.Subject
	courseworks map[uint]*models.Coursework
	assignments map[uint]*models.StudentCoursework
	departments []models.Department
	groups      map[uint][]models.StudentGroup
	revoked     map[string]struct{}
	calls       map[string]int
	failures    map[string]int
}

// NewBackend starts a fake backend that is closed when the test ends.
func NewBackend(t testing.TB) *Backend {
	t.Helper()

	b := &Backend{
		now:         time.Now,
		tokenTTL:    time.Hour,
		nextID:      100,
		accounts:    make(map[uint]*account),
		subjects:    make(map[uint]*models.Subject),
		courseworks: make(map[uint]*models.Coursework),
		assignments: make(map[uint]*models.StudentCoursework),
		groups:      make(map[uint][]models.StudentGroup),
		revoked:     make(map[string]struct{}),
		calls:       make(map[string]int),
		failures:    make(map[string]int),
	}

	app := fiber.New(fiber.Config{DisableStartupMessage: true})
	b.routes(app)
	b.Server = httptest.NewServer(adaptor.FiberApp(app))
	t.Cleanup(b.Server.Close)
	return b
}

// BaseURL is the API root the portal should be configured with.
func (b *Backend) BaseURL() string {
	return b.Server.URL + "/api/v1"
}

// AddUser registers an account directly and returns it.
func (b *Backend) AddUser(email, password string, role models.UserRole) models.User {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.addUserLocked(email, password, "Test", string(role), role)
}

// AddSubject creates a subject taught by the given teachers.
func (b *Backend) AddSubject(name, code string, semester int, teacherIDs ...uint) models.Subject {
	b.mu.Lock()
	defer b.mu.Unlock()

	subject := &models.Subject{
		ID:        b.id(),
		Name:      name,
		Code:      code,
		Semester:  semester,
		IsActive:  true,
		CreatedAt: b.stamp(),
	}
	for _, teacherID := range teacherIDs {
		if acc, ok := b.accounts[teacherID]; ok {
			subject.Teachers = append(subject.Teachers, acc.user)
		}
	}
	b.subjects[subject.ID] = subject
	return *subject
}

// AddCoursework creates a coursework owned by teacherID.
func (b *Backend) AddCoursework(title string, subjectID, teacherID uint, maxStudents int) models.Coursework {
	b.mu.Lock()
	defer b.mu.Unlock()

	coursework := b.newCourseworkLocked(dto.CreateCourseworkRequest{
		Title:       title,
		Description: "Coursework description long enough to pass validation",
		SubjectID:   subjectID,
		TeacherID:   teacherID,
		MaxStudents: maxStudents,
		Difficulty:  models.DifficultyMedium,
	})
	return *coursework
}

// AddDepartment registers a department with its groups.
func (b *Backend) AddDepartment(code, name string, groups ...string) models.Department {
	b.mu.Lock()
	defer b.mu.Unlock()

	department := models.Department{ID: b.id(), Code: code, Name: name, CreatedAt: b.stamp()}
	b.departments = append(b.departments, department)
	for i, group := range groups {
		b.groups[department.ID] = append(b.groups[department.ID], models.StudentGroup{
			ID:         b.id(),
			Code:       group,
			CourseYear: i + 1,
			Department: department,
			CreatedAt:  b.stamp(),
		})
	}
	return department
}

// Coursework returns the backend's view of a coursework.
func (b *Backend) Coursework(id uint) (models.Coursework, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	coursework, ok := b.courseworks[id]
	if !ok {
		return models.Coursework{}, false
	}
	return *coursework, true
}

// Assignment returns the coursework assigned to studentID.
func (b *Backend) Assignment(studentID uint) (models.StudentCoursework, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	assignment, ok := b.assignments[studentID]
	if !ok {
		return models.StudentCoursework{}, false
	}
	return *assignment, true
}

// Calls reports how many times "METHOD /path" was requested.
func (b *Backend) Calls(route string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.calls[route]
}

// FailNext makes the next n requests to route answer with a 500.
func (b *Backend) FailNext(route string, n int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failures[route] = n
}

// RevokeTokens makes every issued token answer 401.
func (b *Backend) RevokeTokens() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.revoked["*"] = struct{}{}
}

// IssueToken signs a token for userID that expires at expiresAt.
func (b *Backend) IssueToken(userID uint, role models.UserRole, expiresAt time.Time) string {
	claims := jwt.MapClaims{
		"sub":  strconv.FormatUint(uint64(userID), 10),
		"role": string(role),
		"exp":  expiresAt.Unix(),
		"iat":  b.now().Unix(),
		"jti":  uuid.NewString(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(backendSecret))
	if err != nil {
		panic(fmt.Sprintf("sign token: %v", err))
	}
	return signed
}

func (b *Backend) routes(app *fiber.App) {
	app.Use(b.record)

	v1 := app.Group("/api/v1")
	v1.Post("/auth/login", b.login)
	v1.Post("/auth/register", b.register)
	v1.Post("/auth/refresh", b.refresh)
	v1.Post("/auth/reset-password", b.resetPassword)

	protected := v1.Group("", b.authenticate)
	protected.Get("/profile", b.profile)
	protected.Post("/profile/logout", b.logout)
	protected.Post("/profile/change-password", b.changePassword)

	protected.Get("/courseworks", b.listCourseworks)
	protected.Get("/courseworks/available", b.availableCourseworks)
	protected.Post("/courseworks", b.requireManager, b.createCoursework)
	protected.Get("/courseworks/:id", b.getCoursework)
	protected.Put("/courseworks/:id", b.requireManager, b.updateCoursework)
	protected.Delete("/courseworks/:id", b.requireManager, b.deleteCoursework)
	protected.Post("/courseworks/:id/assign", b.assign)
	protected.Put("/courseworks/:id/availability", b.requireManager, b.setAvailability)
	protected.Get("/student-courseworks", b.studentCoursework)

	protected.Get("/subjects", b.listSubjects)
	protected.Post("/subjects", b.requireAdmin, b.createSubject)
	protected.Get("/subjects/:id", b.getSubject)
	protected.Put("/subjects/:id", b.requireAdmin, b.updateSubject)
	protected.Delete("/subjects/:id", b.requireAdmin, b.deleteSubject)
	protected.Post("/subjects/:id/teachers", b.requireAdmin, b.assignTeacher)
	protected.Delete("/subjects/:id/teachers/:teacherId", b.requireAdmin, b.removeTeacher)
	protected.Put("/subjects/:id/lead-teacher", b.requireAdmin, b.leadTeacher)

	protected.Get("/users", b.requireManager, b.listUsers)
	protected.Post("/users", b.requireAdmin, b.createUser)
	protected.Get("/users/:id", b.getUser)
	protected.Put("/users/:id", b.requireAdmin, b.updateUser)
	protected.Delete("/users/:id", b.requireAdmin, b.deleteUser)

	protected.Get("/departments", b.listDepartments)
	protected.Get("/departments/:id/groups", b.listGroups)
}

func (b *Backend) record(c *fiber.Ctx) error {
	route := c.Method() + " " + strings.TrimPrefix(c.Path(), "/api/v1")

	b.mu.Lock()
	b.calls[route]++
	failing := b.failures[route]
	if failing > 0 {
		b.failures[route] = failing - 1
	}
	b.mu.Unlock()

	if failing > 0 {
		return fail(c, fiber.StatusInternalServerError, "internal server error")
	}
	return c.Next()
}

func (b *Backend) authenticate(c *fiber.Ctx) error {
	authorization := c.Get("Authorization")
	const bearer = "Bearer "
	if !strings.HasPrefix(strings.ToLower(authorization), strings.ToLower(bearer)) {
		return fail(c, fiber.StatusUnauthorized, "authorization header missing")
	}

	tokenString := strings.TrimSpace(authorization[len(bearer):])
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method")
		}
		return []byte(backendSecret), nil
	}, jwt.WithTimeFunc(b.now))
	if err != nil || !token.Valid {
		return fail(c, fiber.StatusUnauthorized, "invalid token")
	}

	subject, err := token.Claims.GetSubject()
	if err != nil {
		return fail(c, fiber.StatusUnauthorized, "invalid token claims")
	}
	userID, err := strconv.ParseUint(subject, 10, 64)
	if err != nil {
		return fail(c, fiber.StatusUnauthorized, "invalid token claims")
	}

	b.mu.Lock()
	_, revokedAll := b.revoked["*"]
	_, revoked := b.revoked[tokenString]
	acc, ok := b.accounts[uint(userID)]
	b.mu.Unlock()
	if revokedAll || revoked || !ok {
		return fail(c, fiber.StatusUnauthorized, "invalid token")
	}

	c.Locals("user", acc.user)
	c.Locals("token", tokenString)
	return c.Next()
}

func (b *Backend) requireManager(c *fiber.Ctx) error {
	if !currentUser(c).Role.CanManageCourseworks() {
		return fail(c, fiber.StatusForbidden, "insufficient permissions")
	}
	return c.Next()
}

func (b *Backend) requireAdmin(c *fiber.Ctx) error {
	if currentUser(c).Role != models.RoleAdmin {
		return fail(c, fiber.StatusForbidden, "insufficient permissions")
	}
	return c.Next()
}

func (b *Backend) login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, "invalid request body")
	}

	b.mu.Lock()
	acc := b.findByEmailLocked(req.Email)
	b.mu.Unlock()
	if acc == nil || acc.password != req.Password {
		return fail(c, fiber.StatusUnauthorized, "invalid credentials")
	}

	return c.JSON(b.loginResponse(acc.user))
}

func (b *Backend) register(c *fiber.Ctx) error {
	var req dto.RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, "invalid request body")
	}
	if req.Email == "" || len(req.Password) < 6 || !req.Role.Valid() {
		return fail(c, fiber.StatusBadRequest, "invalid registration data")
	}

	b.mu.Lock()
	if b.findByEmailLocked(req.Email) != nil {
		b.mu.Unlock()
		return fail(c, fiber.StatusConflict, "user already exists")
	}
	user := b.addUserLocked(req.Email, req.Password, req.FirstName, req.LastName, req.Role)
	b.mu.Unlock()

	return c.Status(fiber.StatusCreated).JSON(b.loginResponse(user))
}

func (b *Backend) refresh(c *fiber.Ctx) error {
	var req dto.RefreshTokenRequest
	if err := c.BodyParser(&req); err != nil || req.Token == "" {
		return fail(c, fiber.StatusBadRequest, "token is required")
	}

	parsed, err := jwt.Parse(req.Token, func(t *jwt.Token) (interface{}, error) {
		return []byte(backendSecret), nil
	}, jwt.WithTimeFunc(b.now))
	if err != nil {
		return fail(c, fiber.StatusUnauthorized, "invalid token")
	}
	subject, _ := parsed.Claims.GetSubject()
	userID, _ := strconv.ParseUint(subject, 10, 64)

	b.mu.Lock()
	acc, ok := b.accounts[uint(userID)]
	b.mu.Unlock()
	if !ok {
		return fail(c, fiber.StatusUnauthorized, "invalid token")
	}

	expiresAt := b.now().Add(b.tokenTTL + time.Minute)
	return c.JSON(dto.RefreshTokenResponse{
		Token:     b.IssueToken(acc.user.ID, acc.user.Role, expiresAt),
		ExpiresAt: expiresAt.Unix(),
	})
}

func (b *Backend) resetPassword(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"message": "if the account exists, a reset link has been sent"})
}

func (b *Backend) profile(c *fiber.Ctx) error {
	user := currentUser(c)
	b.mu.Lock()
	defer b.mu.Unlock()
	if acc, ok := b.accounts[user.ID]; ok {
		return c.JSON(acc.user)
	}
	return fail(c, fiber.StatusNotFound, "user not found")
}

func (b *Backend) logout(c *fiber.Ctx) error {
	token, _ := c.Locals("token").(string)
	b.mu.Lock()
	b.revoked[token] = struct{}{}
	b.mu.Unlock()
	return c.JSON(fiber.Map{"message": "logged out"})
}

func (b *Backend) changePassword(c *fiber.Ctx) error {
	var req dto.ChangePasswordRequest
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, "invalid request body")
	}

	user := currentUser(c)
	b.mu.Lock()
	defer b.mu.Unlock()
	acc := b.accounts[user.ID]
	if acc.password != req.OldPassword {
		return fail(c, fiber.StatusBadRequest, "old password is incorrect")
	}
	acc.password = req.NewPassword
	return c.JSON(fiber.Map{"message": "password changed"})
}

func (b *Backend) listCourseworks(c *fiber.Ctx) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	subjectID := uint(c.QueryInt("subject_id"))
	teacherID := uint(c.QueryInt("teacher_id"))
	difficulty := models.DifficultyLevel(c.Query("difficulty_level"))
	available := c.Query("available")

	items := make([]models.Coursework, 0, len(b.courseworks))
	for _, coursework := range b.sortedCourseworksLocked() {
		if subjectID != 0 && coursework.Subject.ID != subjectID {
			continue
		}
		if teacherID != 0 && coursework.Teacher.ID != teacherID {
			continue
		}
		if difficulty != "" && coursework.Difficulty != difficulty {
			continue
		}
		if available != "" && strconv.FormatBool(coursework.IsAvailable) != available {
			continue
		}
		items = append(items, coursework)
	}

	total := len(items)
	offset := c.QueryInt("offset")
	if offset > len(items) {
		offset = len(items)
	}
	items = items[offset:]
	if limit := c.QueryInt("limit"); limit > 0 && limit < len(items) {
		items = items[:limit]
	}

	return c.JSON(dto.CourseworkListResponse{Courseworks: items, Total: int64(total)})
}

func (b *Backend) availableCourseworks(c *fiber.Ctx) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	items := make([]models.Coursework, 0)
	for _, coursework := range b.sortedCourseworksLocked() {
		if coursework.IsAvailable {
			items = append(items, coursework)
		}
	}
	return c.JSON(items)
}

func (b *Backend) createCoursework(c *fiber.Ctx) error {
	var req dto.CreateCourseworkRequest
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, "invalid request body")
	}
	if len(req.Title) < 5 || len(req.Description) < 20 || req.MaxStudents < 1 || !req.Difficulty.Valid() {
		return fail(c, fiber.StatusBadRequest, "invalid coursework data")
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.subjects[req.SubjectID]; !ok {
		return fail(c, fiber.StatusBadRequest, "subject not found")
	}
	if _, ok := b.accounts[req.TeacherID]; !ok {
		return fail(c, fiber.StatusBadRequest, "teacher not found")
	}
	coursework := b.newCourseworkLocked(req)
	return c.Status(fiber.StatusCreated).JSON(coursework)
}

func (b *Backend) getCoursework(c *fiber.Ctx) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	coursework, ok := b.courseworks[paramID(c, "id")]
	if !ok {
		return fail(c, fiber.StatusNotFound, "project not found")
	}
	return c.JSON(coursework)
}

func (b *Backend) updateCoursework(c *fiber.Ctx) error {
	var req dto.UpdateCourseworkRequest
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, "invalid request body")
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	coursework, ok := b.courseworks[paramID(c, "id")]
	if !ok {
		return fail(c, fiber.StatusNotFound, "project not found")
	}
	if req.Title != nil {
		coursework.Title = *req.Title
	}
	if req.Description != nil {
		coursework.Description = *req.Description
	}
	if req.Requirements != nil {
		coursework.Requirements = *req.Requirements
	}
	if req.MaxStudents != nil {
		coursework.MaxStudents = *req.MaxStudents
	}
	if req.Difficulty != nil {
		coursework.Difficulty = *req.Difficulty
	}
	if req.IsAvailable != nil {
		coursework.IsAvailable = *req.IsAvailable
	}
	if req.SubjectID != nil {
		if subject, ok := b.subjects[*req.SubjectID]; ok {
			coursework.Subject = *subject
		}
	}
	coursework.UpdatedAt = b.stamp()
	return c.JSON(coursework)
}

func (b *Backend) deleteCoursework(c *fiber.Ctx) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	id := paramID(c, "id")
	if _, ok := b.courseworks[id]; !ok {
		return fail(c, fiber.StatusNotFound, "project not found")
	}
	delete(b.courseworks, id)
	return c.SendStatus(fiber.StatusNoContent)
}

func (b *Backend) assign(c *fiber.Ctx) error {
	var req dto.AssignStudentRequest
	_ = c.BodyParser(&req)

	user := currentUser(c)
	studentID := user.ID
	if user.Role != models.RoleStudent && req.StudentID != 0 {
		studentID = req.StudentID
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	coursework, ok := b.courseworks[paramID(c, "id")]
	if !ok {
		return fail(c, fiber.StatusNotFound, "project not found")
	}
	if _, assigned := b.assignments[studentID]; assigned {
		return fail(c, fiber.StatusBadRequest, "student already has an assigned coursework")
	}
	if !coursework.IsAvailable || b.takenLocked(coursework.ID) >= coursework.MaxStudents {
		return fail(c, fiber.StatusBadRequest, "no slots available for this coursework")
	}

	student, ok := b.accounts[studentID]
	if !ok {
		return fail(c, fiber.StatusNotFound, "student not found")
	}
	assignment := &models.StudentCoursework{
		ID:         b.id(),
		Student:    student.user,
		Coursework: *coursework,
		Status:     models.CourseworkStatusAssigned,
		AssignedAt: b.stamp(),
		UpdatedAt:  b.stamp(),
	}
	b.assignments[studentID] = assignment
	if b.takenLocked(coursework.ID) >= coursework.MaxStudents {
		coursework.IsAvailable = false
	}

	return c.Status(fiber.StatusCreated).JSON(assignment)
}

func (b *Backend) setAvailability(c *fiber.Ctx) error {
	var req dto.AvailabilityRequest
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, "invalid request body")
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	coursework, ok := b.courseworks[paramID(c, "id")]
	if !ok {
		return fail(c, fiber.StatusNotFound, "project not found")
	}
	coursework.IsAvailable = req.IsAvailable
	return c.JSON(fiber.Map{"message": "availability updated"})
}

func (b *Backend) studentCoursework(c *fiber.Ctx) error {
	user := currentUser(c)
	b.mu.Lock()
	defer b.mu.Unlock()
	assignment, ok := b.assignments[user.ID]
	if !ok {
		return fail(c, fiber.StatusNotFound, "no coursework assigned")
	}
	return c.JSON(assignment)
}

func (b *Backend) listSubjects(c *fiber.Ctx) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	ids := make([]uint, 0, len(b.subjects))
	for id := range b.subjects {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	items := make([]models.Subject, 0, len(ids))
	for _, id := range ids {
		items = append(items, *b.subjects[id])
	}
	return c.JSON(items)
}

func (b *Backend) createSubject(c *fiber.Ctx) error {
	var req dto.CreateSubjectRequest
	if err := c.BodyParser(&req); err != nil || req.Name == "" || req.Code == "" {
		return fail(c, fiber.StatusBadRequest, "invalid subject data")
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	for _, subject := range b.subjects {
		if strings.EqualFold(subject.Code, req.Code) {
			return fail(c, fiber.StatusConflict, "subject code already exists")
		}
	}
	subject := &models.Subject{
		ID:          b.id(),
		Name:        req.Name,
		Code:        req.Code,
		Description: req.Description,
		Semester:    req.Semester,
		IsActive:    true,
		CreatedAt:   b.stamp(),
	}
	b.subjects[subject.ID] = subject
	return c.Status(fiber.StatusCreated).JSON(subject)
}

func (b *Backend) getSubject(c *fiber.Ctx) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	subject, ok := b.subjects[paramID(c, "id")]
	if !ok {
		return fail(c, fiber.StatusNotFound, "subject not found")
	}
	return c.JSON(subject)
}

func (b *Backend) updateSubject(c *fiber.Ctx) error {
	var req dto.UpdateSubjectRequest
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, "invalid request body")
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	subject, ok := b.subjects[paramID(c, "id")]
	if !ok {
		return fail(c, fiber.StatusNotFound, "subject not found")
	}
	if req.Name != nil {
		subject.Name = *req.Name
	}
	if req.Description != nil {
		subject.Description = *req.Description
	}
	if req.Semester != nil {
		subject.Semester = *req.Semester
	}
	if req.IsActive != nil {
		subject.IsActive = *req.IsActive
	}
	return c.JSON(subject)
}

func (b *Backend) deleteSubject(c *fiber.Ctx) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	id := paramID(c, "id")
	if _, ok := b.subjects[id]; !ok {
		return fail(c, fiber.StatusNotFound, "subject not found")
	}
	delete(b.subjects, id)
	return c.SendStatus(fiber.StatusNoContent)
}

func (b *Backend) assignTeacher(c *fiber.Ctx) error {
	var req dto.AssignTeacherRequest
	if err := c.BodyParser(&req); err != nil || req.TeacherID == 0 {
		return fail(c, fiber.StatusBadRequest, "teacher_id is required")
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	subject, ok := b.subjects[paramID(c, "id")]
	if !ok {
		return fail(c, fiber.StatusNotFound, "subject not found")
	}
	acc, ok := b.accounts[req.TeacherID]
	if !ok || acc.user.Role != models.RoleTeacher {
		return fail(c, fiber.StatusBadRequest, "teacher not found")
	}
	if subject.HasTeacher(req.TeacherID) {
		return fail(c, fiber.StatusConflict, "teacher already assigned to subject")
	}
	subject.Teachers = append(subject.Teachers, acc.user)
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"message": "teacher assigned"})
}

func (b *Backend) removeTeacher(c *fiber.Ctx) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	subject, ok := b.subjects[paramID(c, "id")]
	if !ok {
		return fail(c, fiber.StatusNotFound, "subject not found")
	}
	teacherID := paramID(c, "teacherId")
	kept := subject.Teachers[:0]
	for _, teacher := range subject.Teachers {
		if teacher.ID != teacherID {
			kept = append(kept, teacher)
		}
	}
	subject.Teachers = kept
	return c.SendStatus(fiber.StatusNoContent)
}

func (b *Backend) leadTeacher(c *fiber.Ctx) error {
	var req dto.LeadTeacherRequest
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, "invalid request body")
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	subject, ok := b.subjects[paramID(c, "id")]
	if !ok {
		return fail(c, fiber.StatusNotFound, "subject not found")
	}
	if !subject.HasTeacher(req.TeacherID) {
		return fail(c, fiber.StatusBadRequest, "teacher is not assigned to subject")
	}
	return c.JSON(fiber.Map{"message": "lead teacher updated"})
}

func (b *Backend) listUsers(c *fiber.Ctx) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	role := models.UserRole(c.Query("role"))
	ids := make([]uint, 0, len(b.accounts))
	for id := range b.accounts {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	users := make([]models.User, 0, len(ids))
	for _, id := range ids {
		user := b.accounts[id].user
		if role != "" && user.Role != role {
			continue
		}
		users = append(users, user)
	}
	total := len(users)
	if limit := c.QueryInt("limit"); limit > 0 && limit < len(users) {
		users = users[:limit]
	}
	return c.JSON(dto.UserListResponse{Users: users, Total: int64(total)})
}

func (b *Backend) createUser(c *fiber.Ctx) error {
	var req dto.CreateUserRequest
	if err := c.BodyParser(&req); err != nil || req.Email == "" || !req.Role.Valid() {
		return fail(c, fiber.StatusBadRequest, "invalid user data")
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.findByEmailLocked(req.Email) != nil {
		return fail(c, fiber.StatusConflict, "user already exists")
	}
	user := b.addUserLocked(req.Email, req.Password, req.FirstName, req.LastName, req.Role)
	return c.Status(fiber.StatusCreated).JSON(user)
}

func (b *Backend) getUser(c *fiber.Ctx) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	acc, ok := b.accounts[paramID(c, "id")]
	if !ok {
		return fail(c, fiber.StatusNotFound, "user not found")
	}
	return c.JSON(acc.user)
}

func (b *Backend) updateUser(c *fiber.Ctx) error {
	var req dto.UpdateUserRequest
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, "invalid request body")
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	acc, ok := b.accounts[paramID(c, "id")]
	if !ok {
		return fail(c, fiber.StatusNotFound, "user not found")
	}
	if req.Email != nil {
		acc.user.Email = *req.Email
	}
	if req.FirstName != nil {
		acc.user.FirstName = *req.FirstName
	}
	if req.LastName != nil {
		acc.user.LastName = *req.LastName
	}
	if req.Role != nil {
		acc.user.Role = *req.Role
	}
	if req.IsActive != nil {
		acc.user.IsActive = *req.IsActive
	}
	return c.JSON(acc.user)
}

func (b *Backend) deleteUser(c *fiber.Ctx) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	id := paramID(c, "id")
	if _, ok := b.accounts[id]; !ok {
		return fail(c, fiber.StatusNotFound, "user not found")
	}
	delete(b.accounts, id)
	return c.SendStatus(fiber.StatusNoContent)
}

func (b *Backend) listDepartments(c *fiber.Ctx) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	items := append([]models.Department(nil), b.departments...)
	if items == nil {
		items = []models.Department{}
	}
	return c.JSON(items)
}

func (b *Backend) listGroups(c *fiber.Ctx) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	groups := append([]models.StudentGroup(nil), b.groups[paramID(c, "id")]...)
	if groups == nil {
		groups = []models.StudentGroup{}
	}
	return c.JSON(groups)
}

func (b *Backend) loginResponse(user models.User) dto.LoginResponse {
	expiresAt := b.now().Add(b.tokenTTL)
	return dto.LoginResponse{
		Token:     b.IssueToken(user.ID, user.Role, expiresAt),
		User:      user,
		ExpiresAt: expiresAt.Unix(),
	}
}

func (b *Backend) addUserLocked(email, password, firstName, lastName string, role models.UserRole) models.User {
	user := models.User{
		ID:        b.id(),
		Email:     email,
		FirstName: firstName,
		LastName:  lastName,
		Role:      role,
		IsActive:  true,
		CreatedAt: b.stamp(),
	}
	b.accounts[user.ID] = &account{user: user, password: password}
	return user
}

func (b *Backend) newCourseworkLocked(req dto.CreateCourseworkRequest) *models.Coursework {
	coursework := &models.Coursework{
		ID:           b.id(),
		Title:        req.Title,
		Description:  req.Description,
		Requirements: req.Requirements,
		MaxStudents:  req.MaxStudents,
		Difficulty:   req.Difficulty,
		IsAvailable:  true,
		CreatedAt:    b.stamp(),
		UpdatedAt:    b.stamp(),
	}
	if subject, ok := b.subjects[req.SubjectID]; ok {
		coursework.Subject = *subject
		coursework.Subject.Teachers = nil
	}
	if acc, ok := b.accounts[req.TeacherID]; ok {
		coursework.Teacher = acc.user
	}
	b.courseworks[coursework.ID] = coursework
	return coursework
}

func (b *Backend) findByEmailLocked(email string) *account {
	for _, acc := range b.accounts {
		if strings.EqualFold(acc.user.Email, strings.TrimSpace(email)) {
			return acc
		}
	}
	return nil
}

func (b *Backend) sortedCourseworksLocked() []models.Coursework {
	ids := make([]uint, 0, len(b.courseworks))
	for id := range b.courseworks {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	items := make([]models.Coursework, 0, len(ids))
	for _, id := range ids {
		items = append(items, *b.courseworks[id])
	}
	return items
}

func (b *Backend) takenLocked(courseworkID uint) int {
	taken := 0
	for _, assignment := range b.assignments {
		if assignment.Coursework.ID == courseworkID {
			taken++
		}
	}
	return taken
}

func (b *Backend) id() uint {
	b.nextID++
	return b.nextID
}

func (b *Backend) stamp() string {
	return b.now().UTC().Format(timeLayout)
}

func currentUser(c *fiber.Ctx) models.User {
	user, _ := c.Locals("user").(models.User)
	return user
}

func paramID(c *fiber.Ctx, name string) uint {
	value, err := strconv.ParseUint(c.Params(name), 10, 64)
	if err != nil {
		return 0
	}
	return uint(value)
}

func fail(c *fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(dto.ErrorResponse{Error: message})
}
