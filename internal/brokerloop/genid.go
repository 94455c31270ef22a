package brokerloop

import (
	"fmt"
	"math/rand"
	"os"
	"sync/atomic"
	"time"
)

const tagAlphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"

// tagSeq disambiguates identifiers generated within the same nanosecond,
// mirroring filtercatalog's thread-local rand seeding trick.
var tagSeq atomic.Uint64

func newTagRand() *rand.Rand {
	seed := time.Now().UnixNano() ^ int64(tagSeq.Add(1))
	return rand.New(rand.NewSource(seed))
}

// randomTag returns a 21-character random string drawn from
// [0-9A-Za-z], with a fixed '-' separator at position 10, per spec §4.10.
func randomTag() string {
	r := newTagRand()
	buf := make([]byte, 21)
	for i := range buf {
		if i == 10 {
			buf[i] = '-'
			continue
		}
		buf[i] = tagAlphabet[r.Intn(len(tagAlphabet))]
	}
	return string(buf)
}

// GenID returns the default identifier a broker or core generates on
// startup when the user supplied no name: the host process id, followed by
// the 21-character random tag.
func GenID() string {
	return fmt.Sprintf("%d-%s", os.Getpid(), randomTag())
}
