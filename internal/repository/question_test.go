//go:build integration

package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/askhub-io/askhub/internal/domain"
	"github.com/askhub-io/askhub/internal/testutil"
)

func TestQuestionRepository_AuthorHistory(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)
	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")
	defer pool.Close()

	users := NewUserRepository(pool)
	questions := NewQuestionRepository(pool)
	answers := NewAnswerRepository(pool)

	author := seedUser(ctx, t, users, "emp-2001", "author@example.com")
	asker := seedUser(ctx, t, users, "emp-2002", "asker@example.com")

	seedQuestion(ctx, t, questions, author.ID,
		"Kubernetes ingress setup",
		"Exposing a service through an ingress controller.")
	theirs := seedQuestion(ctx, t, questions, asker.ID,
		"Watson webhook payloads",
		"What shape does the webhook expect?")

	answer := &domain.Answer{
		QuestionID: theirs.ID,
		AuthorID:   author.ID,
		Content:    "Send a JSON body with an authentication header.",
	}
	require.NoError(t, answers.Create(ctx, answer))

	history, err := questions.AuthorHistory(ctx, author.ID, 50)
	require.NoError(t, err)
	require.Len(t, history, 2)

	var sawQuestion, sawAnswer bool
	for _, c := range history {
		switch {
		case c.Title == "Kubernetes ingress setup":
			sawQuestion = true
		case c.Title == "":
			sawAnswer = true
			assert.Contains(t, c.Content, "authentication header")
			assert.Empty(t, c.Tags)
		}
	}
	assert.True(t, sawQuestion, "author's question missing from history")
	assert.True(t, sawAnswer, "author's answer missing from history")
}

func TestQuestionRepository_Unanalyzed(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)
	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")
	defer pool.Close()

	users := NewUserRepository(pool)
	questions := NewQuestionRepository(pool)
	agents := NewAgentRepository(pool)

	author := seedUser(ctx, t, users, "emp-3001", "backfill@example.com")
	first := seedQuestion(ctx, t, questions, author.ID, "First question", "Body one.")
	second := seedQuestion(ctx, t, questions, author.ID, "Second question", "Body two.")

	pending, err := questions.Unanalyzed(ctx, 10)
	require.NoError(t, err)
	require.Len(t, pending, 2)

	require.NoError(t, agents.MarkAnalyzed(ctx, first.ID))

	// a stamped question stays out of the backfill queue even with no
	// suggestion rows
	pending, err = questions.Unanalyzed(ctx, 10)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, second.ID, pending[0].ID)

	require.NoError(t, agents.MarkAnalyzed(ctx, second.ID))

	pending, err = questions.Unanalyzed(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, pending)
}
