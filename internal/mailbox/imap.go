package mailbox

import (
	"fmt"
	"io"
	"time"

	"github.com/emersion/go-imap"
	"github.com/emersion/go-imap/client"
)

// IMAPClient is the production mailbox client, speaking IMAP over TLS
type IMAPClient struct {
	client  *client.Client
	timeout time.Duration
}

// NewIMAPClient creates a new IMAPClient with a default timeout of 30 seconds for IMAP operations
func NewIMAPClient() *IMAPClient {
	return &IMAPClient{
		timeout: 30 * time.Second,
	}
}

// Connect establishes a secure connection to the IMAP server using TLS
func (c *IMAPClient) Connect(addr string) error {
	cl, err := client.DialTLS(addr, nil)
	if err != nil {
		return fmt.Errorf("IMAP connection error: %w", err)
	}
	c.client = cl
	return nil
}

// Login authenticates the user with the IMAP server
func (c *IMAPClient) Login(user, password string) error {
	if c.client == nil {
		return fmt.Errorf("not connected")
	}
	return c.client.Login(user, password)
}

// SelectMailbox selects the specified mailbox (e.g., "INBOX") for subsequent operations
func (c *IMAPClient) SelectMailbox(name string) error {
	if c.client == nil {
		return fmt.Errorf("not connected")
	}
	_, err := c.client.Select(name, false)
	return err
}

// ListUnseenUIDs retrieves the UIDs of all unseen messages in the selected mailbox
func (c *IMAPClient) ListUnseenUIDs() ([]uint32, error) {
	if c.client == nil {
		return nil, fmt.Errorf("not connected")
	}

	criteria := imap.NewSearchCriteria()
	criteria.WithoutFlags = []string{imap.SeenFlag}

	uids, err := c.client.Search(criteria)
	if err != nil {
		return nil, fmt.Errorf("error searching for unseen emails: %w", err)
	}

	return uids, nil
}

// FetchMessage retrieves the raw RFC822 literal of the message with the given UID
func (c *IMAPClient) FetchMessage(uid uint32) (io.Reader, error) {
	if c.client == nil {
		return nil, fmt.Errorf("not connected")
	}

	seqSet := new(imap.SeqSet)
	seqSet.AddNum(uid)

	section := &imap.BodySectionName{}
	items := []imap.FetchItem{section.FetchItem(), imap.FetchUid}

	prevTimeout := c.client.Timeout
	c.client.Timeout = c.timeout
	defer func() { c.client.Timeout = prevTimeout }()

	messages := make(chan *imap.Message, 1)
	done := make(chan error, 1)

	go func() {
		done <- c.client.Fetch(seqSet, items, messages)
	}()

	var msg *imap.Message
	for m := range messages {
		msg = m
	}

	if err := <-done; err != nil {
		return nil, fmt.Errorf("error fetching message UID %d: %w", uid, err)
	}

	if msg == nil {
		return nil, fmt.Errorf("no message retrieved for UID %d", uid)
	}

	body := msg.GetBody(section)
	if body == nil {
		return nil, fmt.Errorf("message body could not be retrieved for UID %d", uid)
	}

	return body, nil
}

// MarkSeen marks the message with the given UID as seen on the server
func (c *IMAPClient) MarkSeen(uid uint32) error {
	if c.client == nil {
		return fmt.Errorf("not connected")
	}

	seqSet := new(imap.SeqSet)
	seqSet.AddNum(uid)

	item := imap.FormatFlagsOp(imap.AddFlags, true)
	flags := []interface{}{imap.SeenFlag}

	return c.client.Store(seqSet, item, flags, nil)
}

// Logout closes the connection to the IMAP server
func (c *IMAPClient) Logout() error {
	if c.client == nil {
		return nil
	}
	return c.client.Logout()
}
