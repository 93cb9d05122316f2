package dispatch

import (
	"strings"
	"time"

	"github.com/arenakv/shardkv/internal/resp"
	"github.com/arenakv/shardkv/pkg/store"
)

// Context carries everything one command invocation needs: the owning
// shard's store, the request arguments (argv[1:]), the current time (for
// TTL math) and the reply writer.
type Context struct {
	Store *store.Store
	Args  [][]byte
	Now   time.Time
	W     *resp.Writer
}

// Handler executes one command against ctx, writing exactly one reply frame
// to ctx.W (or returning a domain error, which Dispatch translates).
type Handler func(ctx *Context) error

type commandSpec struct {
	minArgs int
	maxArgs int // -1 = unbounded
	handler Handler
}

var commands map[string]commandSpec

func register(name string, minArgs, maxArgs int, h Handler) {
	if commands == nil {
		commands = make(map[string]commandSpec)
	}
	commands[name] = commandSpec{minArgs: minArgs, maxArgs: maxArgs, handler: h}
}

// Dispatch resolves req's command name (case-insensitive), validates arity,
// runs the handler, and writes the reply — translating any domain error to
// a RESP error frame (spec.md §4.6 item 5). It never panics: a handler bug
// surfacing as a Go panic is a defect, not a reply path.
func Dispatch(s *store.Store, req resp.Request, w *resp.Writer, now time.Time) {
	name := strings.ToUpper(req.Name())
	spec, ok := commands[name]
	if !ok {
		w.WriteError(ErrUnknownCmd.Error() + " '" + req.Name() + "'")
		return
	}
	args := req.Args()
	if len(args) < spec.minArgs || (spec.maxArgs >= 0 && len(args) > spec.maxArgs) {
		w.WriteError(ErrWrongArgs.Error() + " for '" + name + "'")
		return
	}
	ctx := &Context{Store: s, Args: args, Now: now, W: w}
	if err := spec.handler(ctx); err != nil {
		writeErr(w, err)
	}
}

func writeErr(w *resp.Writer, err error) {
	w.WriteError(err.Error())
}

// CommandNames returns every registered command name, for COMMAND and
// introspection.
func CommandNames() []string {
	out := make([]string, 0, len(commands))
	for name := range commands {
		out = append(out, name)
	}
	return out
}
