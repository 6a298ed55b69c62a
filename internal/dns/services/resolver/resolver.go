// Package resolver turns decoded requests into responses. Without an
// upstream it synthesizes a fixed answer per question; with one it forwards
// every question concurrently and joins the answers in question order.
package resolver

import (
	"context"
	"fmt"
	"net"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/haukened/fwd-dns/internal/dns/common/log"
	"github.com/haukened/fwd-dns/internal/dns/domain"
)

// ErrNoQuestions is returned for requests without a question section. The
// transport drops them without replying.
var ErrNoQuestions = fmt.Errorf("%w: request carries no questions", domain.ErrParse)

type Resolver struct {
	blocklist Blocklist
	cache     AnswerCache
	logger    log.Logger
	upstream  UpstreamClient
}

// ResolverOptions wires the collaborators. Every field is optional: a nil
// Upstream selects local synthesis, a nil Cache or Blocklist disables that
// stage and a nil Logger uses the global logger.
type ResolverOptions struct {
	Blocklist Blocklist
	Cache     AnswerCache
	Logger    log.Logger
	Upstream  UpstreamClient
}

func NewResolver(opts ResolverOptions) *Resolver {
	if opts.Logger == nil {
		opts.Logger = log.GetLogger()
	}
	return &Resolver{
		blocklist: opts.Blocklist,
		cache:     opts.Cache,
		logger:    opts.Logger,
		upstream:  opts.Upstream,
	}
}

// Forwarding reports whether questions are sent upstream.
func (r *Resolver) Forwarding() bool {
	return r.upstream != nil
}

// HandleMessage answers msg in place and returns it as the response. The
// header ID, opcode and any RCODE set during decoding are preserved.
func (r *Resolver) HandleMessage(ctx context.Context, msg *domain.Message, clientAddr net.Addr) (*domain.Message, error) {
	if len(msg.Questions) == 0 {
		return nil, ErrNoQuestions
	}

	allowed := r.filterBlocked(msg.Questions, clientAddr)

	var answers []domain.Answer
	if len(allowed) > 0 {
		if r.upstream == nil {
			answers = make([]domain.Answer, 0, len(allowed))
			for _, q := range allowed {
				answers = append(answers, domain.SyntheticAnswer(q))
			}
		} else {
			answers = r.forward(ctx, allowed)
		}
	} else if msg.Header.RCode == domain.RCodeNoError {
		msg.Header.RCode = domain.RCodeRefused
	}

	if err := msg.SetAnswers(answers); err != nil {
		return nil, err
	}

	r.logger.Debug(map[string]any{
		"id":        msg.Header.ID,
		"client":    addrString(clientAddr),
		"questions": len(msg.Questions),
		"answers":   len(answers),
		"rcode":     msg.Header.RCode.String(),
	}, "request handled")
	return msg, nil
}

// filterBlocked returns the questions that may be answered.
func (r *Resolver) filterBlocked(questions []domain.Question, clientAddr net.Addr) []domain.Question {
	if r.blocklist == nil {
		return questions
	}
	allowed := make([]domain.Question, 0, len(questions))
	for _, q := range questions {
		if r.blocklist.IsBlocked(q.Name.String()) {
			r.logger.Info(map[string]any{
				"question": q.String(),
				"client":   addrString(clientAddr),
			}, "question blocked")
			continue
		}
		allowed = append(allowed, q)
	}
	return allowed
}

// forward resolves every question in its own goroutine. Results are paired
// with the question index so the joined answers follow question order no
// matter which upstream reply lands first. Failed questions are logged and
// contribute nothing.
func (r *Resolver) forward(ctx context.Context, questions []domain.Question) []domain.Answer {
	type result struct {
		answer domain.Answer
		ok     bool
	}
	results := make([]result, len(questions))

	var g errgroup.Group
	for i, q := range questions {
		q := q.Clone()
		g.Go(func() error {
			answer, err := r.resolveOne(ctx, q)
			if err != nil {
				r.logger.Warn(map[string]any{
					"question": q.String(),
					"error":    err,
				}, "upstream resolution failed")
				return nil
			}
			results[i] = result{answer: answer, ok: true}
			return nil
		})
	}
	_ = g.Wait()

	answers := make([]domain.Answer, 0, len(results))
	for _, res := range results {
		if res.ok {
			answers = append(answers, res.answer)
		}
	}
	return answers
}

// resolveOne consults the cache before asking upstream and caches what
// upstream returns. Zero-TTL answers are never cached.
func (r *Resolver) resolveOne(ctx context.Context, q domain.Question) (domain.Answer, error) {
	var key string
	if r.cache != nil {
		key = q.CacheKey()
		if answer, ok := r.cache.Get(key); ok {
			r.logger.Debug(map[string]any{"key": key, "ttl": answer.TTL}, "cache hit")
			return answer, nil
		}
	}

	answer, err := r.upstream.Resolve(ctx, q)
	if err != nil {
		return domain.Answer{}, err
	}

	if r.cache != nil && answer.TTL > 0 {
		r.cache.Set(key, answer, time.Duration(answer.TTL)*time.Second)
	}
	return answer, nil
}

func addrString(addr net.Addr) string {
	if addr == nil {
		return ""
	}
	return addr.String()
}
