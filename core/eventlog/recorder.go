package eventlog

import (
	"encoding/hex"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/zeebo/blake3"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"
)

// Event names written by the engine and the CLI.
const (
	EventSession = "session"
	EventOpen    = "open"
	EventPipe    = "pipe"
	EventClose   = "close"
	EventChdir   = "chdir"
	EventLaunch  = "launch"
	EventReap    = "reap"
	EventError   = "error"
)

// Recorder writes events, one JSON object per line, tagged with a session ID.
type Recorder struct {
	w         io.Writer
	sessionID string
	now       func() time.Time
}

// NewJSONLinesRecorder creates a Recorder with a fresh session ID.
func NewJSONLinesRecorder(w io.Writer) *Recorder {
	return &Recorder{
		w:         w,
		sessionID: uuid.NewString(),
		now:       time.Now,
	}
}

// SessionID identifies every entry written by r.
func (r *Recorder) SessionID() string {
	return r.sessionID
}

// Record writes one event.
func (r *Recorder) Record(event string, fields map[string]interface{}) error {
	if fields == nil {
		fields = map[string]interface{}{}
	}
	entry, err := structpb.NewStruct(map[string]interface{}{
		"timestamp_micros": r.now().UnixMicro(),
		"session_id":       r.sessionID,
		"event":            event,
		"fields":           fields,
	})
	if err != nil {
		return fmt.Errorf("encoding %q event: %w", event, err)
	}

	line, err := protojson.Marshal(entry)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(r.w, string(line))
	return err
}

// StartSession records the start of a session in the given mode along with
// a digest of its directive tokens.
func (r *Recorder) StartSession(mode string, tokens []string) error {
	return r.Record(EventSession, map[string]interface{}{
		"mode":   mode,
		"tokens": len(tokens),
		"digest": Digest(tokens),
	})
}

// Digest is a BLAKE3 hash of a directive stream, used to group sessions that
// ran the same directives.
func Digest(tokens []string) string {
	sum := blake3.Sum256([]byte(strings.Join(tokens, "\x00")))
	return hex.EncodeToString(sum[:])
}
