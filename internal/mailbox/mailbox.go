// Package mailbox provides the IMAP transport the pipeline ingests order
// emails from. The de-duplication contract lives here: a message is marked
// seen after it has been stored, so a correctly functioning server never
// hands it out again.
package mailbox

import "io"

// Client is the mailbox transport contract used by the ingest stage
type Client interface {
	Connect(addr string) error
	Login(user, password string) error
	SelectMailbox(name string) error
	ListUnseenUIDs() ([]uint32, error)
	FetchMessage(uid uint32) (io.Reader, error)
	MarkSeen(uid uint32) error
	Logout() error
}
