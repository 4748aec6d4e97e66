package cmd

// Middleware wraps a command handler (e.g. logging, metrics, history).
// It receives the descriptor so it can read the command's metadata.
type Middleware func(d *Descriptor, next HandlerFunc) HandlerFunc

// Apply wraps h with mws; the first in the list is the outermost.
func Apply(d *Descriptor, h HandlerFunc, mws ...Middleware) HandlerFunc {
	for i := len(mws) - 1; i >= 0; i-- {
		h = mws[i](d, h)
	}
	return h
}
