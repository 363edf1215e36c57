// Package app wires the demo domain: users, projects and tasks with task
// subtypes, capability gates, data filters and completers. The integration
// tests run against this wiring.
package app

import (
	"html/template"
	"net/http"

	"github.com/gin-gonic/gin"

	"modelhub/internal/access"
	"modelhub/internal/controller"
	"modelhub/internal/domain"
	"modelhub/internal/model"
	"modelhub/internal/store"
	"modelhub/internal/view"
)

// App holds the registered domain and its controllers.
type App struct {
	Registry *model.Registry
	Gates    *access.Bindings

	Users    *model.Descriptor
	Projects *model.Descriptor
	Tasks    *model.Descriptor
	Bugs     *model.Descriptor
	Chores   *model.Descriptor

	Controllers []*controller.Controller
}

// NewRegistry declares the demo descriptors.
func NewRegistry() (*model.Registry, *App) {
	reg := model.NewRegistry()
	a := &App{Registry: reg}

	a.Users = reg.Register(&model.Descriptor{
		Name:        "User",
		FriendlyKey: "username",
		LoginType:   true,
		Fields: []model.Field{
			{Name: "name", Kind: model.KindString},
			{Name: "username", Kind: model.KindString},
			{Name: "email", Kind: model.KindString},
			{Name: "password_hash", Kind: model.KindString},
			{Name: "role", Kind: model.KindString},
			{Name: "created_at", Kind: model.KindTime},
		},
		Required: []string{"username"},
	})

	a.Projects = reg.Register(&model.Descriptor{
		Name:         "Project",
		DefaultOrder: "projects.created_at desc",
		CreatorField: "owner",
		Fields: []model.Field{
			{Name: "name", Kind: model.KindString},
			{Name: "description", Kind: model.KindText},
			{Name: "created_at", Kind: model.KindTime},
		},
		Assocs: []model.Assoc{
			{Name: "owner", Target: "User"},
			{Name: "tasks", Target: "Task", ToMany: true, FK: "project_id"},
		},
		Required: []string{"name"},
	})

	a.Tasks = reg.Register(&model.Descriptor{
		Name:         "Task",
		DefaultOrder: "tasks.created_at desc",
		Fields: []model.Field{
			{Name: "type", Kind: model.KindString},
			{Name: "title", Kind: model.KindString},
			{Name: "status", Kind: model.KindString},
			{Name: "due_on", Kind: model.KindDate},
			{Name: "created_at", Kind: model.KindTime},
		},
		Assocs: []model.Assoc{
			{Name: "project", Target: "Project"},
			{Name: "assignee", Target: "User"},
		},
		Required: []string{"title"},
	})

	a.Bugs = reg.Register(&model.Descriptor{Name: "Bug", ParentName: "Task"})
	a.Chores = reg.Register(&model.Descriptor{Name: "Chore", ParentName: "Task"})

	a.Gates = buildGates()
	return reg, a
}

func isAdmin(u model.User) bool {
	if u.IsGuest() {
		return false
	}
	role, _ := u.Record().Get("role").(string)
	return role == "admin"
}

func isSelf(u model.User, subject *model.Record) bool {
	return !u.IsGuest() && u.Record().ID() == subject.ID()
}

func ownsProject(u model.User, project *model.Record) bool {
	if u.IsGuest() || project == nil {
		return false
	}
	ownerID, _ := project.Get("owner_id").(int64)
	return ownerID == u.Record().ID()
}

func buildGates() *access.Bindings {
	gates := access.NewBindings()

	gates.Bind("User", &access.Gate{
		View:   func(model.User, *model.Record, string) bool { return true },
		Create: func(u model.User, _ *model.Record) bool { return u.IsGuest() || isAdmin(u) },
		Update: func(u model.User, s *model.Record) bool { return isSelf(u, s) || isAdmin(u) },
		Delete: func(u model.User, _ *model.Record) bool { return isAdmin(u) },
		Call:   func(u model.User, s *model.Record, _ string) bool { return isSelf(u, s) || isAdmin(u) },
	})

	gates.Bind("Project", &access.Gate{
		View:   func(model.User, *model.Record, string) bool { return true },
		Create: func(u model.User, _ *model.Record) bool { return !u.IsGuest() },
		Update: func(u model.User, s *model.Record) bool { return ownsProject(u, s) || isAdmin(u) },
		Delete: func(u model.User, s *model.Record) bool { return ownsProject(u, s) || isAdmin(u) },
		Call:   func(u model.User, _ *model.Record, _ string) bool { return !u.IsGuest() },
	})

	// Subtype controllers and records inherit this gate through the chain.
	gates.Bind("Task", &access.Gate{
		View:   func(model.User, *model.Record, string) bool { return true },
		Create: func(u model.User, _ *model.Record) bool { return !u.IsGuest() },
		Update: func(u model.User, s *model.Record) bool {
			if u.IsGuest() {
				return false
			}
			assigneeID, _ := s.Get("assignee_id").(int64)
			return assigneeID == u.Record().ID() || isAdmin(u)
		},
		Delete: func(u model.User, _ *model.Record) bool { return isAdmin(u) },
		Call:   func(u model.User, _ *model.Record, _ string) bool { return !u.IsGuest() },
	})

	return gates
}

// ViewFuncs are the template helpers available to every view. A template may
// demand an authenticated viewer; the resulting failure is caught at the
// render boundary and turned into a login redirect for guests.
func ViewFuncs() template.FuncMap {
	return template.FuncMap{
		"underscore": model.Underscore,
		"requireUser": func(u model.User) (string, error) {
			if u == nil || u.IsGuest() {
				return "", domain.SignInRequiredError{Models: []string{"User"}}
			}
			return "", nil
		},
	}
}

// Build mounts a controller per type with its filters and completers.
func (a *App) Build(st store.Store, views *view.Resolver) {
	users := controller.New(a.Users, st, a.Gates, views, a.Registry, nil)
	users.AutocompleteFor("username", controller.Completer{})
	users.ShowAction("account")

	projects := controller.New(a.Projects, st, a.Gates, views, a.Registry, nil)
	projects.AutocompleteFor("name", controller.Completer{Limit: 10})
	projects.DefDataFilter("owner", func(args []string) store.Predicate {
		anyArgs := make([]any, len(args))
		marks := ""
		for i, v := range args {
			anyArgs[i] = v
			if i > 0 {
				marks += ", "
			}
			marks += "?"
		}
		return store.Predicate{Expr: "owner_id IN (" + marks + ")", Args: anyArgs}
	})

	tasks := controller.New(a.Tasks, st, a.Gates, views, a.Registry, nil)
	tasks.AutocompleteFor("title", controller.Completer{})
	tasks.DefDataFilter("status", func(args []string) store.Predicate {
		if len(args) == 0 {
			return store.Predicate{}
		}
		return store.Predicate{Expr: "status = ?", Args: []any{args[0]}}
	})
	tasks.DefWebMethod("close", closeTask(st))

	// Subtype controllers inherit the task filters and completers.
	bugs := controller.New(a.Bugs, st, a.Gates, views, a.Registry, tasks)
	chores := controller.New(a.Chores, st, a.Gates, views, a.Registry, tasks)

	a.Controllers = []*controller.Controller{users, projects, tasks, bugs, chores}
}

// closeTask is a web method: POST /tasks/:id/close marks the task closed.
func closeTask(st store.Store) controller.WebMethod {
	return func(c *gin.Context, rec *model.Record) {
		ctx := c.Request.Context()
		tx, err := st.Begin(ctx)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		rec.Set("status", "closed")
		if err := st.Update(ctx, tx, rec, []string{"status"}); err != nil {
			_ = tx.Rollback()
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		if err := tx.Commit(); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "closed"})
	}
}
