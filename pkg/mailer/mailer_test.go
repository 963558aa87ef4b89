package mailer

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestNewFallsBackToLogging(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	m := New(Config{}, zap.New(core))

	require.IsType(t, &logMailer{}, m)
	require.NoError(t, m.Send(context.Background(), Message{ToAddress: "ani@school.id", Subject: "Reset code", Text: "123456"}))

	entries := logs.All()
	require.Len(t, entries, 1)
	assert.Equal(t, "ani@school.id", entries[0].ContextMap()["to"])
	assert.NotContains(t, entries[0].ContextMap(), "text")
}

func TestNewUsesSendgridWithKey(t *testing.T) {
	m := New(Config{SendgridAPIKey: "SG.key", FromName: "School", FromAddress: "noreply@school.id", SubjectPrefix: "[School] "}, nil)
	sg, ok := m.(*sendgridMailer)
	require.True(t, ok)
	assert.Equal(t, "noreply@school.id", sg.from.Address)
	assert.Equal(t, "[School] ", sg.prefix)
}
