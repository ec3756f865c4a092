package reconcile

import (
	"github.com/rs/zerolog"

	"github.com/Nivmizz7/tarkov-data-overlay/pkg/aliases"
	"github.com/Nivmizz7/tarkov-data-overlay/pkg/constants"
	"github.com/Nivmizz7/tarkov-data-overlay/pkg/differ"
	"github.com/Nivmizz7/tarkov-data-overlay/pkg/errors"
	"github.com/Nivmizz7/tarkov-data-overlay/pkg/normalize"
	"github.com/Nivmizz7/tarkov-data-overlay/pkg/suppression"
	"github.com/Nivmizz7/tarkov-data-overlay/pkg/tasks"
	"github.com/Nivmizz7/tarkov-data-overlay/pkg/wikitext"
)

// options configures a reconciler.
type options struct {
	pages              PageSource
	suppressions       *suppression.Set
	differOpts         []differ.Option
	vocabulary         normalize.Options
	shorthands         []aliases.Shorthand
	nonItems           []string
	minSubstringTokens int
	textCoverRatio     float64
	logger             *zerolog.Logger
	progress           func(done, total int, name string)
	selected           func(tasks.StructuredTask) bool
}

func defaultOptions() *options {
	return &options{
		suppressions:       suppression.NewSet(),
		vocabulary:         normalize.DefaultOptions(),
		shorthands:         aliases.DefaultMapShorthands,
		nonItems:           wikitext.DefaultNonItems(),
		minSubstringTokens: constants.SubstringMinTokens,
		textCoverRatio:     constants.TextCoverRatio,
	}
}

// Option is a function that configures a Reconciler.
type Option func(*options) error

func (o *options) apply(opts ...Option) (*options, error) {
	for _, opt := range opts {
		if err := opt(o); err != nil {
			return nil, err
		}
	}
	return o, nil
}

// newOptions returns reconciler options with default values.
func newOptions(opts ...Option) (*options, error) {
	return defaultOptions().apply(opts...)
}

// WithPages sets where wiki pages come from. Required.
func WithPages(pages PageSource) Option {
	return func(o *options) error {
		if pages == nil {
			return &errors.ValidationError{
				Field:   "pages",
				Message: "cannot be nil",
			}
		}
		o.pages = pages
		return nil
	}
}

// WithSuppressions sets the suppression set applied to the whole batch.
func WithSuppressions(set *suppression.Set) Option {
	return func(o *options) error {
		if set != nil {
			o.suppressions = set
		}
		return nil
	}
}

// WithDiffer passes options to the field comparator.
func WithDiffer(opts ...differ.Option) Option {
	return func(o *options) error {
		o.differOpts = append(o.differOpts, opts...)
		return nil
	}
}

// WithVocabulary replaces the normalizer vocabulary.
func WithVocabulary(vocabulary normalize.Options) Option {
	return func(o *options) error {
		o.vocabulary = vocabulary
		return nil
	}
}

// WithMapShorthands replaces the conditional map shorthands.
func WithMapShorthands(shorthands ...aliases.Shorthand) Option {
	return func(o *options) error {
		o.shorthands = shorthands
		return nil
	}
}

// WithNonItems replaces the link targets never read as items.
func WithNonItems(names ...string) Option {
	return func(o *options) error {
		o.nonItems = names
		return nil
	}
}

// WithMinSubstringTokens sets the substring pass threshold.
func WithMinSubstringTokens(n int) Option {
	return func(o *options) error {
		if n < 1 {
			return &errors.ValidationError{
				Field:   "substring_min_tokens",
				Value:   n,
				Message: "must be at least 1",
			}
		}
		o.minSubstringTokens = n
		return nil
	}
}

// WithTextCoverRatio sets the share of item tokens prose must contain.
func WithTextCoverRatio(ratio float64) Option {
	return func(o *options) error {
		if ratio <= 0 || ratio > 1 {
			return &errors.ValidationError{
				Field:   "text_cover_ratio",
				Value:   ratio,
				Message: "must be in (0, 1]",
			}
		}
		o.textCoverRatio = ratio
		return nil
	}
}

// WithLogger sets the logger. The context logger is used otherwise.
func WithLogger(logger *zerolog.Logger) Option {
	return func(o *options) error {
		o.logger = logger
		return nil
	}
}

// WithProgress registers a callback invoked after each task.
func WithProgress(fn func(done, total int, name string)) Option {
	return func(o *options) error {
		o.progress = fn
		return nil
	}
}

// WithSelection checks only the tasks the predicate accepts. The whole
// snapshot still feeds the alias tables and the next-task index, and only
// suppressions of selected tasks can be reported stale.
func WithSelection(selected func(tasks.StructuredTask) bool) Option {
	return func(o *options) error {
		o.selected = selected
		return nil
	}
}
