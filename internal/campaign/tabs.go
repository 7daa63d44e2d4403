package campaign

import (
	"math/rand/v2"

	"go.uber.org/zap"

	"github.com/ibeckermayer/xdrip/internal/browser"
	"github.com/ibeckermayer/xdrip/internal/sender"
)

// BrowserSenders gives worker 0 the session's own tab and every other
// worker a tab of its own, all in the same logged-in browser.
func BrowserSenders(sess *browser.Session, opts sender.Options) SenderFactory {
	return func(worker int) (Messenger, func(), error) {
		o := opts
		o.Rand = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
		if o.Logger != nil {
			o.Logger = o.Logger.With(zap.Int("worker", worker))
		}

		if worker == 0 {
			return sender.New(sess.Page(), o), func() {}, nil
		}

		page, release, err := sess.NewPage()
		if err != nil {
			return nil, nil, err
		}
		return sender.New(page, o), release, nil
	}
}
