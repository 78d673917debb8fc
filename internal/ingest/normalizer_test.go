package ingest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"orca/internal/models"
)

// fakeMailbox is an in-memory mailbox.Client for tests
type fakeMailbox struct {
	messages   map[uint32]string
	fetchErrs  map[uint32]error
	seen       []uint32
	connectErr error
	markErr    error
}

func (f *fakeMailbox) Connect(addr string) error { return f.connectErr }

func (f *fakeMailbox) Login(user, password string) error { return nil }

func (f *fakeMailbox) SelectMailbox(name string) error { return nil }

func (f *fakeMailbox) Logout() error { return nil }

func (f *fakeMailbox) MarkSeen(uid uint32) error {
	if f.markErr != nil {
		return f.markErr
	}
	f.seen = append(f.seen, uid)
	return nil
}

func (f *fakeMailbox) ListUnseenUIDs() ([]uint32, error) {
	uids := make([]uint32, 0, len(f.messages))
	for uid := range f.messages {
		uids = append(uids, uid)
	}
	return uids, nil
}

func (f *fakeMailbox) FetchMessage(uid uint32) (io.Reader, error) {
	if err, ok := f.fetchErrs[uid]; ok {
		return nil, err
	}
	return strings.NewReader(f.messages[uid]), nil
}

// fakeEmailStore records inserted emails and serves client lookups
type fakeEmailStore struct {
	clients   map[string]*models.Client
	inserted  []*models.EmailMessage
	insertErr error
}

func (f *fakeEmailStore) GetClientByReturnPath(ctx context.Context, returnPath string) (*models.Client, error) {
	return f.clients[returnPath], nil
}

func (f *fakeEmailStore) InsertEmail(ctx context.Context, email *models.EmailMessage) error {
	if f.insertErr != nil {
		return f.insertErr
	}
	email.ID = fmt.Sprintf("email-%d", len(f.inserted)+1)
	f.inserted = append(f.inserted, email)
	return nil
}

func testMessage(returnPath string) string {
	msg := "From: Jan <jan@bakery.example>\r\n" +
		"Subject: Bestelling\r\n" +
		"Date: Tue, 01 Jul 2025 09:00:00 +0200\r\n" +
		"\r\n" +
		"10 bread tomorrow\r\n"
	if returnPath != "" {
		msg = "Return-Path: <" + returnPath + ">\r\n" + msg
	}
	return msg
}

func TestNormalizerRun_StoresAndMarksSeen(t *testing.T) {
	mb := &fakeMailbox{messages: map[uint32]string{1: testMessage("orders@bakery.example")}}
	store := &fakeEmailStore{clients: map[string]*models.Client{
		"orders@bakery.example": {ID: "client-1", Name: "Bakery"},
	}}

	n := NewNormalizer(mb, store, Options{Mailbox: "INBOX"}, zerolog.Nop())
	count, err := n.Run(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 1, count)
	require.Len(t, store.inserted, 1)

	email := store.inserted[0]
	assert.Equal(t, "Bestelling", email.Subject)
	assert.Equal(t, "jan@bakery.example", email.SenderEmail)
	require.NotNil(t, email.ClientID)
	assert.Equal(t, "client-1", *email.ClientID)

	assert.Equal(t, []uint32{1}, mb.seen, "stored message must be marked seen")
}

func TestNormalizerRun_UnknownClientIsNotAnError(t *testing.T) {
	mb := &fakeMailbox{messages: map[uint32]string{1: testMessage("stranger@example.com")}}
	store := &fakeEmailStore{clients: map[string]*models.Client{}}

	n := NewNormalizer(mb, store, Options{}, zerolog.Nop())
	count, err := n.Run(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 1, count)
	require.Len(t, store.inserted, 1)
	assert.Nil(t, store.inserted[0].ClientID)
}

func TestNormalizerRun_BadMessageDoesNotBlockBatch(t *testing.T) {
	mb := &fakeMailbox{
		messages:  map[uint32]string{1: testMessage(""), 2: "ignored"},
		fetchErrs: map[uint32]error{2: errors.New("fetch broke")},
	}
	store := &fakeEmailStore{}

	n := NewNormalizer(mb, store, Options{}, zerolog.Nop())
	count, err := n.Run(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 1, count)
	assert.Len(t, store.inserted, 1)
	assert.Equal(t, []uint32{1}, mb.seen)
}

func TestNormalizerRun_InsertFailureLeavesMessageUnseen(t *testing.T) {
	mb := &fakeMailbox{messages: map[uint32]string{1: testMessage("")}}
	store := &fakeEmailStore{insertErr: errors.New("db down")}

	n := NewNormalizer(mb, store, Options{}, zerolog.Nop())
	count, err := n.Run(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 0, count)
	assert.Empty(t, mb.seen, "a message that failed to store must stay unseen for retry")
}

func TestNormalizerRun_ConnectFailureIsStageError(t *testing.T) {
	mb := &fakeMailbox{connectErr: errors.New("no route")}

	n := NewNormalizer(mb, &fakeEmailStore{}, Options{}, zerolog.Nop())
	count, err := n.Run(context.Background())

	assert.Error(t, err)
	assert.Equal(t, 0, count)
}

func TestNormalizerRun_MarkSeenFailureStillCounts(t *testing.T) {
	mb := &fakeMailbox{
		messages: map[uint32]string{1: testMessage("")},
		markErr:  errors.New("store flag failed"),
	}
	store := &fakeEmailStore{}

	n := NewNormalizer(mb, store, Options{}, zerolog.Nop())
	count, err := n.Run(context.Background())

	// The record is stored; failing to flag it seen risks duplicate
	// ingestion but is not a batch failure.
	require.NoError(t, err)
	assert.Equal(t, 1, count)
	assert.Len(t, store.inserted, 1)
}
