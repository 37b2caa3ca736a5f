package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/taskhub/apiserver/internal/auth"
	"github.com/taskhub/apiserver/internal/logging"
	"github.com/taskhub/apiserver/internal/testutils"
	"github.com/taskhub/apiserver/types"
	"golang.org/x/crypto/bcrypt"
)

type env struct {
	users       *testutils.UserRepository
	tasks       *testutils.TaskRepository
	comments    *testutils.CommentRepository
	attachments *testutils.AttachmentRepository
	objects     *testutils.ObjectStore
	events      *testutils.EventRecorder
	validator   *auth.Validator

	userService       *UserService
	taskService       *TaskService
	commentService    *CommentService
	attachmentService *AttachmentService
}

func newEnv(t *testing.T) *env {
	t.Helper()
	log := logging.Discard()

	codec, err := auth.NewCodec([]byte(testutils.Secret))
	require.NoError(t, err)
	issuer, err := auth.NewIssuer(codec, time.Hour, 24*time.Hour)
	require.NoError(t, err)

	e := &env{
		users:       testutils.NewUserRepository(),
		tasks:       testutils.NewTaskRepository(),
		comments:    testutils.NewCommentRepository(),
		attachments: testutils.NewAttachmentRepository(),
		objects:     testutils.NewObjectStore("attachments"),
		events:      &testutils.EventRecorder{},
	}
	e.validator, err = auth.NewValidator(codec, e.users, false)
	require.NoError(t, err)

	e.userService, err = NewUserService(e.users, auth.NewBcryptHasher(bcrypt.MinCost), issuer, log)
	require.NoError(t, err)
	e.taskService = NewTaskService(e.tasks, e.users, e.events, log)
	e.commentService = NewCommentService(e.comments, e.tasks, e.events, log)
	e.attachmentService = NewAttachmentService(e.attachments, e.tasks, e.objects, 64, log)
	return e
}

// as returns a context authenticated as user.
func as(user types.User) context.Context {
	return auth.WithPrincipal(context.Background(), auth.PrincipalFromUser(user))
}

func anonymous() context.Context {
	return context.Background()
}

// seed creates an admin, an author and an outsider, and a task the admin
// created with the author as assignee.
func (e *env) seed(t *testing.T) (admin, member, outsider types.User, task types.Task) {
	t.Helper()
	ctx := context.Background()
	admin = testutils.MustCreateUser(ctx, t, e.users, "admin@example.com", types.RoleUser, types.RoleAdmin)
	member = testutils.MustCreateUser(ctx, t, e.users, "member@example.com")
	outsider = testutils.MustCreateUser(ctx, t, e.users, "outsider@example.com")

	task, err := e.taskService.Create(as(admin), CreateTaskInput{
		Title:         "Ship the release",
		AssigneeEmail: member.Email,
	})
	require.NoError(t, err)
	return admin, member, outsider, task
}
