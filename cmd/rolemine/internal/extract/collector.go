// Copyright (C) 2025 Pelagic AI (oss@pelagic.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package extract turns the three ordered dump streams of one community
// (posts, comments, edit history) into classified per-user action timelines
// plus the overall dataset time span.
//
// The streams must be consumed in order: posts populate the post registry
// that comment and edit classification depend on. Records missing a
// required attribute and actions whose classification is unresolvable are
// skipped silently; both are expected in sparse dumps and are not failures.
package extract

import (
	"errors"
	"io"
	"sort"
	"time"

	"github.com/PelagicAI/rolemine/cmd/rolemine/internal/actions"
	"github.com/PelagicAI/rolemine/pkg/logging"
)

// ErrPostsFirst indicates a comment or history stream was collected before
// the posts stream.
var ErrPostsFirst = errors.New("posts stream must be collected first")

// Collector accumulates classified actions per user across the three
// streams of one community.
//
// Not safe for concurrent use; streams are consumed sequentially by
// construction (comment and edit classification need the registry that the
// posts pass builds).
type Collector struct {
	log       *logging.Logger
	registry  *actions.Registry
	timelines map[actions.UserID][]ActionEvent
	postOrder []actions.PostID
	span      TimeSpan

	// KeepOwnerless registers posts that carry no owner attribute (owner
	// zero). Health extraction needs every post; event classification must
	// not see ownerless posts, so this stays false for sequence runs.
	KeepOwnerless bool

	postsDone bool
}

// NewCollector returns a collector logging through the given logger.
func NewCollector(log *logging.Logger) *Collector {
	return &Collector{
		log:       log,
		registry:  actions.NewRegistry(),
		timelines: make(map[actions.UserID][]ActionEvent),
	}
}

// Registry exposes the post registry populated by CollectPosts.
func (c *Collector) Registry() *actions.Registry { return c.registry }

// Span returns the running time span over all collected streams.
func (c *Collector) Span() TimeSpan { return c.span }

// PostOrder returns registered post ids in stream order.
func (c *Collector) PostOrder() []actions.PostID { return c.postOrder }

// Timelines returns each user's unordered action list.
func (c *Collector) Timelines() map[actions.UserID][]ActionEvent {
	return c.timelines
}

// Users returns the collected user ids in ascending order, giving callers a
// deterministic traversal of the timelines.
func (c *Collector) Users() []actions.UserID {
	users := make([]actions.UserID, 0, len(c.timelines))
	for u := range c.timelines {
		users = append(users, u)
	}
	sort.Slice(users, func(i, j int) bool { return users[i] < users[j] })
	return users
}

// CollectPosts consumes the Posts stream: populates the registry, emits
// QUESTION / ANSWER_MQ / ANSWER_OQ events, and tracks the time span.
//
// An answer to a question that never made it into the registry (for
// example because the question carried no owner) yields no event but is
// still registered so comments on it can resolve later posts.
func (c *Collector) CollectPosts(src RowSource) error {
	var accepted, skipped uint64
	for {
		row, err := src.Next()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return err
		}

		created, ok := row.Time("CreationDate")
		if !ok {
			skipped++
			continue
		}
		if _, ok := row.Attr("PostTypeId"); !ok {
			skipped++
			continue
		}
		c.span.Observe(created)

		id, idOK := row.Uint("Id")
		owner, ownerOK := row.Uint("OwnerUserId")
		if !idOK || (!ownerOK && !c.KeepOwnerless) {
			skipped++
			continue
		}

		post := actions.PostID(id)
		user := actions.UserID(owner)

		if parent, isAnswer := row.Uint("ParentId"); isAnswer {
			c.registry.AddAnswer(post, user, created, actions.PostID(parent))
			c.postOrder = append(c.postOrder, post)

			if !ownerOK {
				continue
			}
			// This is an answer. Was the question our own?
			ct, resolved := c.registry.Content(actions.PostID(parent), user)
			if !resolved {
				skipped++
				continue
			}
			kind := actions.AnswerOQ
			if ct == actions.MyQuestion {
				kind = actions.AnswerMQ
			}
			c.append(user, kind, created)
		} else {
			var acceptedAnswer *actions.PostID
			if aid, ok := row.Uint("AcceptedAnswerId"); ok {
				pid := actions.PostID(aid)
				acceptedAnswer = &pid
			}
			c.registry.AddQuestion(post, user, created, acceptedAnswer)
			c.postOrder = append(c.postOrder, post)

			if !ownerOK {
				continue
			}
			c.append(user, actions.Question, created)
		}
		accepted++
	}

	c.postsDone = true
	c.log.Info("posts collected", "actions", accepted, "skipped", skipped,
		"registry_size", c.registry.Len())
	return nil
}

// CollectComments consumes the Comments stream, emitting one of the four
// comment action labels per resolvable comment.
func (c *Collector) CollectComments(src RowSource) error {
	if !c.postsDone {
		return ErrPostsFirst
	}

	var accepted, skipped uint64
	for {
		row, err := src.Next()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return err
		}

		created, ok := row.Time("CreationDate")
		if !ok {
			skipped++
			continue
		}
		post, postOK := row.Uint("PostId")
		if !postOK {
			skipped++
			continue
		}
		c.span.Observe(created)

		user, ok := row.Uint("UserId")
		if !ok {
			skipped++
			continue
		}

		// Skip comments where either the parent post or the root question
		// is unresolvable; that happens when the post chain was dropped
		// during post extraction.
		kind, resolved := c.registry.CommentType(actions.PostID(post), actions.UserID(user))
		if !resolved {
			skipped++
			continue
		}
		c.append(actions.UserID(user), kind, created)
		accepted++
	}

	c.log.Info("comments collected", "actions", accepted, "skipped", skipped)
	return nil
}

// CollectHistory consumes the PostHistory stream, emitting edit and
// moderation action labels. Post-creation bookkeeping entries (the Init
// sentinel) are filtered here.
func (c *Collector) CollectHistory(src RowSource) error {
	if !c.postsDone {
		return ErrPostsFirst
	}

	var accepted, skipped uint64
	for {
		row, err := src.Next()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return err
		}

		created, ok := row.Time("CreationDate")
		if !ok {
			skipped++
			continue
		}
		historyType, typeOK := row.Uint("PostHistoryTypeId")
		if !typeOK {
			skipped++
			continue
		}
		c.span.Observe(created)

		user, userOK := row.Uint("UserId")
		post, postOK := row.Uint("PostId")
		if !userOK || !postOK {
			skipped++
			continue
		}

		ct, resolved := c.registry.Content(actions.PostID(post), actions.UserID(user))
		if !resolved {
			skipped++
			continue
		}

		kind := actions.ActionCast(actions.HistoryTypeID(historyType), ct)
		if kind == actions.Init {
			skipped++
			continue
		}
		c.append(actions.UserID(user), kind, created)
		accepted++
	}

	c.log.Info("history collected", "actions", accepted, "skipped", skipped)
	return nil
}

func (c *Collector) append(user actions.UserID, kind actions.ActionType, when time.Time) {
	c.timelines[user] = append(c.timelines[user], ActionEvent{Type: kind, When: when})
}
