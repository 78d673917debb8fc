package llm

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"orca/internal/models"
)

// fakeDraftStore serves unparsed emails and records saved drafts
type fakeDraftStore struct {
	emails  []models.EmailMessage
	saved   map[string]json.RawMessage
	listErr error
	saveErr error
}

func (f *fakeDraftStore) ListUnparsedEmails(ctx context.Context) ([]models.EmailMessage, error) {
	return f.emails, f.listErr
}

func (f *fakeDraftStore) SaveParsedData(ctx context.Context, emailID string, parsed json.RawMessage) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	if f.saved == nil {
		f.saved = map[string]json.RawMessage{}
	}
	f.saved[emailID] = parsed
	return nil
}

// fakeCompleter returns canned completions per prompt invocation
type fakeCompleter struct {
	responses []string
	err       error
	prompts   []string
	calls     int
}

func (f *fakeCompleter) Complete(ctx context.Context, prompt string) (string, error) {
	f.prompts = append(f.prompts, prompt)
	if f.err != nil {
		return "", f.err
	}
	resp := f.responses[f.calls%len(f.responses)]
	f.calls++
	return resp, nil
}

func testEmail(id string) models.EmailMessage {
	return models.EmailMessage{
		ID:        id,
		Subject:   "Bestelling",
		EmailBody: "10 bread tomorrow",
		SentAt:    time.Date(2025, 7, 1, 9, 0, 0, 0, time.UTC),
	}
}

func TestExtractorRun_SavesDraft(t *testing.T) {
	store := &fakeDraftStore{emails: []models.EmailMessage{testEmail("email-1")}}
	completer := &fakeCompleter{responses: []string{
		"```json\n{\"customer_name\":\"Jan\",\"order_date\":\"2025-07-01\",\"products\":[{\"name\":\"bread\",\"quantity\":10,\"unit\":\"pieces\",\"delivery_date\":\"2025-07-02\"}]}\n```",
	}}

	e := NewExtractor(store, completer, zerolog.Nop())
	e.now = func() time.Time { return time.Date(2025, 7, 10, 0, 0, 0, 0, time.UTC) }

	count, err := e.Run(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 1, count)

	saved, ok := store.saved["email-1"]
	require.True(t, ok)

	var draft models.ParsedOrder
	require.NoError(t, json.Unmarshal(saved, &draft), "saved draft must be clean JSON, fence stripped")
	require.NotNil(t, draft.CustomerName)
	assert.Equal(t, "Jan", *draft.CustomerName)
	require.Len(t, draft.Products, 1)

	// The prompt embeds today and the email's own sent date
	require.Len(t, completer.prompts, 1)
	assert.Contains(t, completer.prompts[0], "2025-07-10")
	assert.Contains(t, completer.prompts[0], "2025-07-01")
	assert.Contains(t, completer.prompts[0], "10 bread tomorrow")
}

func TestExtractorRun_NonJSONOutputSkipsEmail(t *testing.T) {
	store := &fakeDraftStore{emails: []models.EmailMessage{testEmail("email-1"), testEmail("email-2")}}
	completer := &fakeCompleter{responses: []string{
		"I'm sorry, I can't read this email.",
		`{"customer_name":"Jan","products":[]}`,
	}}

	e := NewExtractor(store, completer, zerolog.Nop())
	count, err := e.Run(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 1, count, "bad output skips one email, not the batch")
	_, firstSaved := store.saved["email-1"]
	assert.False(t, firstSaved, "a failed email must stay unprocessed for retry")
	_, secondSaved := store.saved["email-2"]
	assert.True(t, secondSaved)
}

func TestExtractorRun_CompletionErrorSkipsEmail(t *testing.T) {
	store := &fakeDraftStore{emails: []models.EmailMessage{testEmail("email-1")}}
	completer := &fakeCompleter{err: errors.New("model unreachable")}

	e := NewExtractor(store, completer, zerolog.Nop())
	count, err := e.Run(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 0, count)
	assert.Empty(t, store.saved)
}

func TestExtractorRun_SaveFailureLeavesFlagUnset(t *testing.T) {
	store := &fakeDraftStore{
		emails:  []models.EmailMessage{testEmail("email-1")},
		saveErr: errors.New("db down"),
	}
	completer := &fakeCompleter{responses: []string{`{"products":[]}`}}

	e := NewExtractor(store, completer, zerolog.Nop())
	count, err := e.Run(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

func TestExtractorRun_ListFailureIsStageError(t *testing.T) {
	store := &fakeDraftStore{listErr: errors.New("db down")}

	e := NewExtractor(store, &fakeCompleter{}, zerolog.Nop())
	count, err := e.Run(context.Background())

	assert.Error(t, err)
	assert.Equal(t, 0, count)
}

func TestExtractorRun_NoEligibleEmailsIsNoOp(t *testing.T) {
	e := NewExtractor(&fakeDraftStore{}, &fakeCompleter{}, zerolog.Nop())
	count, err := e.Run(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

func TestExtractorRun_HTMLBodyPreferred(t *testing.T) {
	html := "<p>20 croissants</p>"
	email := testEmail("email-1")
	email.EmailBodyHTML = &html

	store := &fakeDraftStore{emails: []models.EmailMessage{email}}
	completer := &fakeCompleter{responses: []string{`{"products":[]}`}}

	e := NewExtractor(store, completer, zerolog.Nop())
	_, err := e.Run(context.Background())

	require.NoError(t, err)
	require.Len(t, completer.prompts, 1)
	assert.Contains(t, completer.prompts[0], "20 croissants")
}
