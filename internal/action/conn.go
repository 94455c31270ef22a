package action

import (
	"bufio"
	"fmt"
	"net"
	"time"

	"go.helics.dev/corehub/internal/crypto"
)

const writeDeadline = 5 * time.Second

// Conn wraps a net.Conn with buffered, length-prefixed ActionMessage
// framing and optional encryption. It generalizes the teacher's
// internal/wire.Conn (newline-delimited JSON) to the length-prefixed,
// self-describing frames spec §6 requires for inter-core transport.
type Conn struct {
	conn net.Conn
	br   *bufio.Reader
	key  *[32]byte // nil = no encryption
}

// New wraps conn. If key is non-nil every frame is encrypted with NaCl
// secretbox before being written and decrypted after being read.
func New(conn net.Conn, key *[32]byte) *Conn {
	return &Conn{
		conn: conn,
		br:   bufio.NewReaderSize(conn, 64*1024),
		key:  key,
	}
}

// Underlying returns the wrapped net.Conn.
func (c *Conn) Underlying() net.Conn { return c.conn }

// Close closes the underlying connection.
func (c *Conn) Close() error { return c.conn.Close() }

// RemoteAddr returns the remote network address.
func (c *Conn) RemoteAddr() net.Addr { return c.conn.RemoteAddr() }

// SetReadDeadline sets or clears the read deadline.
func (c *Conn) SetReadDeadline(d time.Duration) {
	if d == 0 {
		_ = c.conn.SetReadDeadline(time.Time{})
	} else {
		_ = c.conn.SetReadDeadline(time.Now().Add(d))
	}
}

// SetWriteDeadline sets or clears the write deadline.
func (c *Conn) SetWriteDeadline(d time.Duration) {
	if d == 0 {
		_ = c.conn.SetWriteDeadline(time.Time{})
	} else {
		_ = c.conn.SetWriteDeadline(time.Now().Add(d))
	}
}

// WriteMessage encodes m, optionally encrypts the frame body, and writes
// the (possibly re-sized) length-prefixed frame to the connection.
func (c *Conn) WriteMessage(m Message) error {
	frame, err := Encode(m)
	if err != nil {
		return err
	}
	if c.key != nil {
		// Re-seal: encrypt the body (everything after the 4-byte length
		// prefix) and re-prefix with the ciphertext's length, so the
		// frame stays self-describing on an encrypted link.
		ct, err := crypto.Seal(frame[4:], c.key)
		if err != nil {
			return fmt.Errorf("action encrypt: %w", err)
		}
		frame = prefixed(ct)
	}

	c.SetWriteDeadline(writeDeadline)
	_, err = c.conn.Write(frame)
	c.SetWriteDeadline(0)
	return err
}

// ReadMessage reads one length-prefixed frame, optionally decrypts it, and
// decodes it into a Message.
func (c *Conn) ReadMessage() (Message, error) {
	if c.key == nil {
		return ReadFrom(c.br)
	}

	ct, err := readPrefixed(c.br)
	if err != nil {
		return Message{}, err
	}
	plain, err := crypto.Open(ct, c.key)
	if err != nil {
		return Message{}, fmt.Errorf("action decrypt: %w", err)
	}
	return decodeBody(plain)
}
