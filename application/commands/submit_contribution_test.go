package commands

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/kryoon/backend/domain/contribution"
	"github.com/kryoon/backend/infrastructure/persistence/memory"
	pkgerrors "github.com/kryoon/backend/pkg/errors"
)

func seedTree(t *testing.T, repo *memory.TreeRepository) {
	t.Helper()
	require.NoError(t, repo.Create(context.Background(), "owner-1", contribution.NewTree("post-1")))
}

func validSubmit() SubmitContributionCommand {
	return SubmitContributionCommand{
		OwnerUserID:     "owner-1",
		PostID:          "post-1",
		SubmitterUserID: "user-1",
		Prompt:          "make it neon",
		ModelName:       "gen-v3",
		File:            strings.NewReader("fake image bytes"),
		FileName:        "remix.png",
		FileSize:        16,
		ContentType:     "image/png",
	}
}

func TestSubmitContribution(t *testing.T) {
	treeRepo := memory.NewTreeRepository()
	blob := memory.NewBlobStore()
	notifier := memory.NewNotifier()
	seedTree(t, treeRepo)

	h := NewSubmitContributionHandler(treeRepo, blob, notifier, zap.NewNop())

	node, err := h.Handle(context.Background(), validSubmit())
	require.NoError(t, err)
	require.NotNil(t, node)

	assert.Equal(t, contribution.RootNodeID, node.ParentID)
	assert.Equal(t, "user-1", node.OwnerUserID)
	assert.True(t, strings.HasPrefix(node.MediaRef, "posts/post-1/contrib/"))
	assert.True(t, strings.HasSuffix(node.MediaRef, ".png"))
	assert.Equal(t, 1, blob.UploadCount())

	tree, err := treeRepo.Get(context.Background(), "owner-1", "post-1")
	require.NoError(t, err)
	require.Len(t, tree.Nodes, 1)
	require.Len(t, tree.Edges, 1)
	assert.Equal(t, node.ID, tree.Edges[0].TargetID)
}

func TestSubmitContributionWithCrossLink(t *testing.T) {
	treeRepo := memory.NewTreeRepository()
	blob := memory.NewBlobStore()
	notifier := memory.NewNotifier()
	seedTree(t, treeRepo)

	h := NewSubmitContributionHandler(treeRepo, blob, notifier, zap.NewNop())

	first, err := h.Handle(context.Background(), validSubmit())
	require.NoError(t, err)

	cmd := validSubmit()
	cmd.File = strings.NewReader("more bytes")
	cmd.CrossTargetID = first.ID
	second, err := h.Handle(context.Background(), cmd)
	require.NoError(t, err)

	tree, err := treeRepo.Get(context.Background(), "owner-1", "post-1")
	require.NoError(t, err)
	require.Len(t, tree.Edges, 3)
	assert.Equal(t, first.ID, tree.Edges[2].SourceID)
	assert.Equal(t, second.ID, tree.Edges[2].TargetID)
}

func TestSubmitRejectsBeforeUpload(t *testing.T) {
	tests := map[string]func(*SubmitContributionCommand){
		"oversize file": func(cmd *SubmitContributionCommand) {
			cmd.FileSize = MaxUploadBytes + 1
		},
		"wrong content type": func(cmd *SubmitContributionCommand) {
			cmd.ContentType = "application/pdf"
		},
		"empty prompt": func(cmd *SubmitContributionCommand) {
			cmd.Prompt = "  "
		},
		"missing model": func(cmd *SubmitContributionCommand) {
			cmd.ModelName = ""
		},
		"no file": func(cmd *SubmitContributionCommand) {
			cmd.File = nil
		},
		"zero size": func(cmd *SubmitContributionCommand) {
			cmd.FileSize = 0
		},
	}

	for name, mutate := range tests {
		t.Run(name, func(t *testing.T) {
			treeRepo := memory.NewTreeRepository()
			blob := memory.NewBlobStore()
			seedTree(t, treeRepo)
			h := NewSubmitContributionHandler(treeRepo, blob, memory.NewNotifier(), zap.NewNop())

			cmd := validSubmit()
			mutate(&cmd)

			_, err := h.Handle(context.Background(), cmd)
			require.Error(t, err)
			assert.True(t, pkgerrors.IsValidation(err))

			// Rejected submissions never touch the blob store.
			assert.Equal(t, 0, blob.UploadCount())

			tree, err := treeRepo.Get(context.Background(), "owner-1", "post-1")
			require.NoError(t, err)
			assert.Empty(t, tree.Nodes)
		})
	}
}

func TestSubmitAcceptsVideo(t *testing.T) {
	treeRepo := memory.NewTreeRepository()
	blob := memory.NewBlobStore()
	seedTree(t, treeRepo)
	h := NewSubmitContributionHandler(treeRepo, blob, memory.NewNotifier(), zap.NewNop())

	cmd := validSubmit()
	cmd.FileName = "remix.mp4"
	cmd.ContentType = "video/mp4"

	node, err := h.Handle(context.Background(), cmd)
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(node.MediaRef, ".mp4"))
}

func TestSubmitUploadFailureLeavesTreeUntouched(t *testing.T) {
	treeRepo := memory.NewTreeRepository()
	blob := memory.NewBlobStore()
	blob.FailUploads = true
	seedTree(t, treeRepo)
	h := NewSubmitContributionHandler(treeRepo, blob, memory.NewNotifier(), zap.NewNop())

	_, err := h.Handle(context.Background(), validSubmit())
	require.Error(t, err)

	tree, err := treeRepo.Get(context.Background(), "owner-1", "post-1")
	require.NoError(t, err)
	assert.Empty(t, tree.Nodes)
}
