package main

import (
	"context"
	"flag"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/noah-isme/courseforge-portal/internal/apperr"
	"github.com/noah-isme/courseforge-portal/internal/dto"
	"github.com/noah-isme/courseforge-portal/internal/models"
	"github.com/noah-isme/courseforge-portal/internal/view"
)

var errNoSession = apperr.New(apperr.KindNoSession, "")

func login(ctx context.Context, env *environment, args []string) error {
	fs := newFlagSet("login")
	email := fs.String("email", "", "account email")
	password := fs.String("password", "", "account password, prompted when empty")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if strings.TrimSpace(*email) == "" {
		return errUsage
	}

	secret, err := env.secret(*password)
	if err != nil {
		return err
	}

	session, err := env.portal.Session.Login(ctx, dto.LoginRequest{Email: *email, Password: secret})
	if err != nil {
		return err
	}
	env.printf("signed in as %s (%s)\n", session.User.Email, session.User.Role)
	return nil
}

func register(ctx context.Context, env *environment, args []string) error {
	fs := newFlagSet("register")
	email := fs.String("email", "", "account email")
	first := fs.String("first", "", "first name")
	last := fs.String("last", "", "last name")
	role := fs.String("role", string(models.RoleStudent), "student, teacher or admin")
	password := fs.String("password", "", "account password, prompted when empty")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if strings.TrimSpace(*email) == "" {
		return errUsage
	}

	secret, err := env.secret(*password)
	if err != nil {
		return err
	}

	session, err := env.portal.Session.Register(ctx, dto.RegisterRequest{
		Email:     *email,
		Password:  secret,
		FirstName: *first,
		LastName:  *last,
		Role:      models.UserRole(strings.ToLower(*role)),
	})
	if err != nil {
		return err
	}
	env.printf("account created for %s (%s)\n", session.User.Email, session.User.Role)
	return nil
}

func logout(ctx context.Context, env *environment, _ []string) error {
	if _, ok := env.portal.Session.Current(); !ok {
		return errNoSession
	}
	env.portal.Session.Logout(ctx)
	env.printf("signed out\n")
	return nil
}

func whoami(ctx context.Context, env *environment, _ []string) error {
	user, err := env.portal.Session.RefreshProfile(ctx)
	if err != nil {
		return err
	}
	env.printf("%d\t%s\t%s\t%s\n", user.ID, user.Email, user.FullName(), user.Role)
	return nil
}

func dashboard(ctx context.Context, env *environment, _ []string) error {
	user, ok := env.portal.Session.User()
	if !ok {
		return errNoSession
	}

	switch user.Role {
	case models.RoleStudent:
		snapshot, err := env.portal.CourseworkState.Load(ctx)
		if fatal(err) {
			return err
		}
		return env.printJSON(view.BuildStudentDashboard(snapshot, env.catalog, ""))
	case models.RoleTeacher:
		snapshot, err := env.portal.CourseworkState.Load(ctx)
		if fatal(err) {
			return err
		}
		return env.printJSON(view.BuildTeacherDashboard(snapshot, user.Role, env.catalog))
	case models.RoleAdmin:
		overview, err := env.portal.AdminStats.Load(ctx)
		if fatal(err) {
			return err
		}
		return env.printJSON(view.BuildAdminDashboard(overview, view.ErrorMessage(err, env.catalog), env.catalog))
	default:
		return apperr.New(apperr.KindForbidden, fmt.Sprintf("role %q has no dashboard", user.Role))
	}
}

// fatal reports load errors that leave nothing to render.
func fatal(err error) bool {
	switch apperr.KindOf(err) {
	case apperr.KindNoSession, apperr.KindUnauthorized, apperr.KindCanceled, apperr.KindForbidden:
		return err != nil
	}
	return false
}

func claim(ctx context.Context, env *environment, args []string) error {
	fs := newFlagSet("claim")
	id := fs.Uint("id", 0, "coursework id")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *id == 0 {
		return errUsage
	}

	if _, err := env.portal.CourseworkState.Load(ctx); fatal(err) {
		return err
	}

	assignment, err := env.portal.CourseworkState.Assign(ctx, *id)
	if err != nil {
		return err
	}
	env.printf("%s\n%d\t%s\n", env.catalog.Text(view.MsgClaimSuccess), assignment.Coursework.ID, assignment.Coursework.Title)
	return nil
}

func create(ctx context.Context, env *environment, args []string) error {
	fs := newFlagSet("create")
	subject := fs.Uint("subject", 0, "subject id")
	teacher := fs.Uint("teacher", 0, "owning teacher id, defaults to the signed-in user")
	title := fs.String("title", "", "title")
	description := fs.String("description", "", "description")
	requirements := fs.String("requirements", "", "requirements")
	maxStudents := fs.Int("max", 1, "maximum number of students")
	difficulty := fs.String("difficulty", string(models.DifficultyMedium), "easy, medium or hard")
	if err := fs.Parse(args); err != nil {
		return err
	}

	created, err := env.portal.CourseworkState.Create(ctx, dto.CreateCourseworkRequest{
		Title:        *title,
		Description:  *description,
		Requirements: *requirements,
		SubjectID:    *subject,
		TeacherID:    *teacher,
		MaxStudents:  *maxStudents,
		Difficulty:   models.DifficultyLevel(strings.ToLower(*difficulty)),
	})
	if err != nil {
		return err
	}
	env.printf("created coursework %d: %s\n", created.ID, created.Title)
	return nil
}

func update(ctx context.Context, env *environment, args []string) error {
	fs := newFlagSet("update")
	id := fs.Uint("id", 0, "coursework id")
	title := fs.String("title", "", "title")
	description := fs.String("description", "", "description")
	requirements := fs.String("requirements", "", "requirements")
	subject := fs.Uint("subject", 0, "subject id")
	maxStudents := fs.Int("max", 0, "maximum number of students")
	difficulty := fs.String("difficulty", "", "easy, medium or hard")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *id == 0 {
		return errUsage
	}

	var req dto.UpdateCourseworkRequest
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "title":
			req.Title = title
		case "description":
			req.Description = description
		case "requirements":
			req.Requirements = requirements
		case "subject":
			req.SubjectID = subject
		case "max":
			req.MaxStudents = maxStudents
		case "difficulty":
			level := models.DifficultyLevel(strings.ToLower(*difficulty))
			req.Difficulty = &level
		}
	})

	updated, err := env.portal.CourseworkState.Update(ctx, *id, req)
	if err != nil {
		return err
	}
	env.printf("updated coursework %d: %s\n", updated.ID, updated.Title)
	return nil
}

func remove(ctx context.Context, env *environment, args []string) error {
	fs := newFlagSet("delete")
	id := fs.Uint("id", 0, "coursework id")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *id == 0 {
		return errUsage
	}

	if err := env.portal.CourseworkState.Delete(ctx, *id); err != nil {
		return err
	}
	env.printf("deleted coursework %d\n", *id)
	return nil
}

func availability(ctx context.Context, env *environment, args []string) error {
	fs := newFlagSet("availability")
	id := fs.Uint("id", 0, "coursework id")
	available := fs.Bool("available", true, "open or close the coursework")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *id == 0 {
		return errUsage
	}

	if err := env.portal.CourseworkState.SetAvailability(ctx, *id, *available); err != nil {
		return err
	}
	state := "closed"
	if *available {
		state = "open"
	}
	env.printf("coursework %d is %s\n", *id, state)
	return nil
}

func subjects(ctx context.Context, env *environment, _ []string) error {
	if _, ok := env.portal.Session.Current(); !ok {
		return errNoSession
	}

	snapshot, err := env.portal.SubjectsState.Load(ctx)
	if err != nil {
		return err
	}

	writer := tabwriter.NewWriter(env.stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(writer, "ID\tCODE\tNAME\tSEMESTER\tTEACHERS")
	for _, subject := range snapshot.Subjects {
		fmt.Fprintf(writer, "%d\t%s\t%s\t%d\t%d\n", subject.ID, subject.Code, subject.Name, subject.Semester, len(subject.Teachers))
	}
	return writer.Flush()
}

func (e *environment) secret(flagValue string) (string, error) {
	if flagValue != "" {
		return flagValue, nil
	}
	if e.prompt == nil {
		return "", errUsage
	}
	return e.prompt("Password: ")
}
