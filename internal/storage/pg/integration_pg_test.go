package pg

import (
	"context"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/curator-cms/curator/internal/config"
	"github.com/curator-cms/curator/internal/domain"
	internal_errors "github.com/curator-cms/curator/internal/errors"
)

var storage *Storage

// Set CURATOR_PG_INTEGRATION=1 to run these against a disposable postgres
// container. Without it the package's tests are skipped.
func TestMain(m *testing.M) {
	if os.Getenv("CURATOR_PG_INTEGRATION") == "" {
		os.Exit(m.Run())
	}

	ctx := context.Background()
	var container *postgres.PostgresContainer
	storage, container = mustSetup(ctx)
	defer teardown(ctx, storage, container)

	os.Exit(m.Run())
}

func requireStorage(t *testing.T) *Storage {
	t.Helper()
	if storage == nil {
		t.Skip("set CURATOR_PG_INTEGRATION=1 to run postgres integration tests")
	}
	return storage
}

func mustSetup(ctx context.Context) (*Storage, *postgres.PostgresContainer) {
	dbName := "curator"
	dbUser := "user"
	dbPassword := "password"
	container, err := postgres.Run(ctx,
		"postgres:15.3-alpine",
		postgres.WithInitScripts(filepath.Join("migrations", "init.sql")),
		postgres.WithDatabase(dbName),
		postgres.WithUsername(dbUser),
		postgres.WithPassword(dbPassword),
		testcontainers.WithWaitStrategy(
			// The container restarts itself after the first startup, so wait
			// for the readiness log twice.
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(5*time.Second),
		),
	)
	if err != nil {
		log.Fatalf("failed to start container: %s", err)
	}
	containerPort, err := container.MappedPort(ctx, "5432/tcp")
	if err != nil {
		log.Fatalf("failed to obtain container port: %s", err)
	}
	port, err := strconv.Atoi(containerPort.Port())
	if err != nil {
		log.Fatalf("failed to obtain int container port: %s", err)
	}

	host, err := container.Host(ctx)
	if err != nil {
		log.Fatalf("failed to obtain container host: %s", err)
	}

	storage, err := New(&config.Config{Private: config.Private{Pg: config.Pg{Host: host, Port: port, User: dbUser, Password: dbPassword, Dbname: dbName}}})
	if err != nil {
		log.Fatalf("failed to connect to postgres container: %s", err)
	}
	return storage, container
}

func teardown(ctx context.Context, storage *Storage, container *postgres.PostgresContainer) {
	if err := storage.Cleanup(); err != nil {
		log.Printf("failed to close storage connection: %s", err)
	}
	if err := container.Terminate(ctx); err != nil {
		log.Printf("failed to terminate container: %s", err)
	}
}

func newAttachment(owner *domain.OwnerRef, field, diskPath string) *domain.Attachment {
	att := &domain.Attachment{
		DiskPath:         diskPath,
		OriginalFilename: filepath.Base(diskPath),
		MimeType:         "text/plain",
		SizeBytes:        5,
	}
	if owner != nil {
		att.Bound = true
		att.Owner = *owner
		att.Field = field
	}
	return att
}

func TestAttachmentCRUD(t *testing.T) {
	s := requireStorage(t)
	owner := domain.OwnerRef{Kind: "article", Id: 100}

	id, err := s.CreateAttachment(newAttachment(&owner, "gallery", "ab/cd/a.txt"))
	require.NoError(t, err)

	t.Run("get returns the bound row", func(t *testing.T) {
		got, err := s.GetAttachment(id)
		require.NoError(t, err)
		assert.Equal(t, id, got.Id)
		assert.True(t, got.Bound)
		assert.Equal(t, owner, got.Owner)
		assert.Equal(t, "gallery", got.Field)
		assert.False(t, got.Created.IsZero())
	})

	t.Run("get missing", func(t *testing.T) {
		_, err := s.GetAttachment(999999)
		assert.True(t, internal_errors.IsNotFound(err))
	})

	t.Run("delete", func(t *testing.T) {
		require.NoError(t, s.DeleteAttachment(id))
		_, err := s.GetAttachment(id)
		assert.True(t, internal_errors.IsNotFound(err))
		assert.True(t, internal_errors.IsNotFound(s.DeleteAttachment(id)))
	})
}

func TestOwnerBinding(t *testing.T) {
	s := requireStorage(t)
	owner := domain.OwnerRef{Kind: "article", Id: 200}
	other := domain.OwnerRef{Kind: "article", Id: 201}

	id, err := s.CreateAttachment(newAttachment(nil, "", "ab/cd/b.txt"))
	require.NoError(t, err)

	t.Run("attach an unbound attachment", func(t *testing.T) {
		require.NoError(t, s.AttachOwner(id, owner, "gallery"))

		got, err := s.GetAttachment(id)
		require.NoError(t, err)
		assert.True(t, got.Bound)
	})

	t.Run("rebinding to the same owner is a no-op", func(t *testing.T) {
		assert.NoError(t, s.AttachOwner(id, owner, "gallery"))
	})

	t.Run("binding to another owner conflicts", func(t *testing.T) {
		err := s.AttachOwner(id, other, "gallery")
		var status *internal_errors.ErrorWithStatusCode
		require.ErrorAs(t, err, &status)
		assert.Equal(t, 409, status.StatusCode)
	})

	t.Run("detach keeps the row", func(t *testing.T) {
		require.NoError(t, s.DetachOwner(id, owner, "gallery"))

		got, err := s.GetAttachment(id)
		require.NoError(t, err)
		assert.False(t, got.Bound)
	})

	t.Run("detaching an unbound attachment fails", func(t *testing.T) {
		assert.True(t, internal_errors.IsNotFound(s.DetachOwner(id, owner, "gallery")))
	})
}

func TestListForOwner(t *testing.T) {
	s := requireStorage(t)
	owner := domain.OwnerRef{Kind: "article", Id: 300}

	second := newAttachment(&owner, "gallery", "ab/cd/second.txt")
	second.SortOrder = 2
	first := newAttachment(&owner, "gallery", "ab/cd/first.txt")
	first.SortOrder = 1
	otherField := newAttachment(&owner, "featured_image", "ab/cd/other.txt")

	_, err := s.CreateAttachment(second)
	require.NoError(t, err)
	_, err = s.CreateAttachment(first)
	require.NoError(t, err)
	_, err = s.CreateAttachment(otherField)
	require.NoError(t, err)

	atts, err := s.ListForOwner(owner, "gallery")
	require.NoError(t, err)
	require.Len(t, atts, 2)
	assert.Equal(t, "ab/cd/first.txt", atts[0].DiskPath)
	assert.Equal(t, "ab/cd/second.txt", atts[1].DiskPath)
}

func TestDeferredBindings(t *testing.T) {
	s := requireStorage(t)
	owner := domain.OwnerRef{Kind: "article", Id: 400}

	t.Run("commit binds in deferral order", func(t *testing.T) {
		id1, err := s.CreateAttachment(newAttachment(nil, "", "ab/cd/d1.txt"))
		require.NoError(t, err)
		id2, err := s.CreateAttachment(newAttachment(nil, "", "ab/cd/d2.txt"))
		require.NoError(t, err)

		require.NoError(t, s.CreateDeferredBinding("sess-commit", "gallery", id1, true))
		require.NoError(t, s.CreateDeferredBinding("sess-commit", "gallery", id2, true))
		require.NoError(t, s.CommitDeferred("sess-commit", owner))

		atts, err := s.ListForOwner(owner, "gallery")
		require.NoError(t, err)
		assert.Len(t, atts, 2)

		// Committing again is a no-op since the bindings are gone.
		require.NoError(t, s.CommitDeferred("sess-commit", owner))
	})

	t.Run("discard deletes only unbound rows", func(t *testing.T) {
		unboundId, err := s.CreateAttachment(newAttachment(nil, "", "ab/cd/d3.txt"))
		require.NoError(t, err)
		boundOwner := domain.OwnerRef{Kind: "article", Id: 401}
		boundId, err := s.CreateAttachment(newAttachment(&boundOwner, "gallery", "ab/cd/d4.txt"))
		require.NoError(t, err)

		require.NoError(t, s.CreateDeferredBinding("sess-discard", "gallery", unboundId, true))
		require.NoError(t, s.CreateDeferredBinding("sess-discard", "gallery", boundId, true))

		orphans, err := s.DiscardDeferred("sess-discard")
		require.NoError(t, err)
		require.Len(t, orphans, 1)
		assert.Equal(t, unboundId, orphans[0].Id)

		_, err = s.GetAttachment(unboundId)
		assert.True(t, internal_errors.IsNotFound(err))
		_, err = s.GetAttachment(boundId)
		assert.NoError(t, err)
	})
}

func TestUsers(t *testing.T) {
	s := requireStorage(t)

	id, err := s.SaveUser(domain.User{Email: "admin@example.com", PassHash: "hash", Admin: true})
	require.NoError(t, err)

	t.Run("lookup by email", func(t *testing.T) {
		user, err := s.User("admin@example.com")
		require.NoError(t, err)
		assert.Equal(t, id, user.Id)
		assert.True(t, user.Admin)
		assert.Equal(t, "hash", user.PassHash)
	})

	t.Run("duplicate email is rejected", func(t *testing.T) {
		_, err := s.SaveUser(domain.User{Email: "admin@example.com", PassHash: "other"})
		assert.Error(t, err)
	})

	t.Run("unknown email", func(t *testing.T) {
		_, err := s.User("ghost@example.com")
		assert.True(t, internal_errors.IsNotFound(err))
	})
}
