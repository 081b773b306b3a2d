package watch

import (
	"context"
	"errors"
	"os"

	"github.com/damianmunoz/debinfo-dispatcher/pkg/live"
	"github.com/damianmunoz/debinfo-dispatcher/pkg/logging"
	"github.com/damianmunoz/debinfo-dispatcher/pkg/source"
	"github.com/damianmunoz/debinfo-dispatcher/pkg/translate"
)

// Translator is the part of translate.Translator the processor uses.
type Translator interface {
	TranslateFile(ctx context.Context, uri string, kind translate.Kind) (*translate.Result, error)
	RemoveOutputs(base string) ([]string, error)
}

// Publisher broadcasts live events.
type Publisher interface {
	Publish(ev live.Event)
}

// Invalidator drops cached graphs.
type Invalidator interface {
	Invalidate(name string)
}

// Processor turns change batches into translations and live events.
type Processor struct {
	translator Translator
	publisher  Publisher
	cache      Invalidator
	logger     logging.Logger
}

// NewProcessor creates a Processor. publisher and cache may be nil.
func NewProcessor(t Translator, publisher Publisher, cache Invalidator, logger logging.Logger) *Processor {
	return &Processor{
		translator: t,
		publisher:  publisher,
		cache:      cache,
		logger:     logging.OrNop(logger).With(logging.Component("watch")),
	}
}

// Handle is a Handler.
func (p *Processor) Handle(ctx context.Context, changes []Change) {
	for _, c := range changes {
		if ctx.Err() != nil {
			return
		}
		name := translate.OutputBase(source.BaseName(c.Path))

		if c.Op == OpRemove {
			if _, err := os.Stat(c.Path); err == nil {
				// renamed over an existing file; treat as a write
				c.Op = OpWrite
			} else {
				removed, err := p.translator.RemoveOutputs(name)
				if err != nil {
					p.logger.Warn("removing outputs failed", logging.Path(c.Path), logging.Error(err))
				}
				p.invalidate(name)
				p.publish(live.GraphRemoved(name))
				p.logger.Info("input removed", logging.Path(c.Path), logging.Count(len(removed)))
				continue
			}
		}

		res, err := p.translator.TranslateFile(ctx, c.Path, "")
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			p.logger.Warn("re-translation failed", logging.Path(c.Path), logging.Error(err))
			p.publish(live.TranslationFailed(name))
			continue
		}
		p.invalidate(res.Base)
		p.publish(live.GraphUpdated(res.Base))
	}
}

func (p *Processor) invalidate(name string) {
	if p.cache != nil {
		p.cache.Invalidate(name)
	}
}

func (p *Processor) publish(ev live.Event) {
	if p.publisher != nil {
		p.publisher.Publish(ev)
	}
}
