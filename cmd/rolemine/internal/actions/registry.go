// Copyright (C) 2025 Pelagic AI (oss@pelagic.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package actions

import "time"

// Post is the registry record for a single post.
//
// Relationships are stored as identifiers, never as direct references, so
// the registry stays acyclic and can be rebuilt or serialized trivially.
// A nil Parent marks a question; a non-nil Parent marks an answer.
type Post struct {
	// Owner is the posting user. Zero when the source record carried no
	// owner (health extraction registers those; event extraction does not).
	Owner UserID

	// Created is the post creation timestamp.
	Created time.Time

	// Parent is the question this answer belongs to, nil for questions.
	Parent *PostID

	// AcceptedAnswer is the answer the question owner accepted, if any.
	AcceptedAnswer *PostID

	// FirstAnswer is the chronologically earliest answer seen so far.
	FirstAnswer *PostID
}

// Answered reports whether a question has received at least one answer.
func (p Post) Answered() bool { return p.FirstAnswer != nil }

// Registry is an identifier-indexed index of post metadata, populated from
// the Posts stream before comments and edit history are classified.
//
// Not safe for concurrent mutation; the collector populates it from a
// single goroutine.
type Registry struct {
	posts map[PostID]Post
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{posts: make(map[PostID]Post)}
}

// Len returns the number of registered posts.
func (r *Registry) Len() int { return len(r.posts) }

// Get looks up a post by identifier.
func (r *Registry) Get(id PostID) (Post, bool) {
	p, ok := r.posts[id]
	return p, ok
}

// AddQuestion registers a question post.
func (r *Registry) AddQuestion(id PostID, owner UserID, created time.Time, accepted *PostID) {
	r.posts[id] = Post{Owner: owner, Created: created, AcceptedAnswer: accepted}
}

// AddAnswer registers an answer post and maintains the parent question's
// first-answer field: if the parent has no recorded first answer, or this
// answer is chronologically earlier than the recorded one, the parent is
// updated in place.
func (r *Registry) AddAnswer(id PostID, owner UserID, created time.Time, parent PostID) {
	pid := parent
	r.posts[id] = Post{Owner: owner, Created: created, Parent: &pid}

	q, ok := r.posts[parent]
	if !ok {
		return
	}
	if q.FirstAnswer == nil || r.posts[*q.FirstAnswer].Created.After(created) {
		aid := id
		q.FirstAnswer = &aid
		r.posts[parent] = q
	}
}

// Content classifies a post's relationship to an acting user.
//
// A post with no parent is a question, otherwise an answer; it is "mine"
// iff its owner equals user. The second return is false when the post is
// not in the registry — the caller applies the uniform skip policy.
func (r *Registry) Content(post PostID, user UserID) (ContentType, bool) {
	p, ok := r.posts[post]
	if !ok {
		return 0, false
	}
	if p.Owner == user {
		if p.Parent != nil {
			return MyAnswer, true
		}
		return MyQuestion, true
	}
	if p.Parent != nil {
		return OtherAnswer, true
	}
	return OtherQuestion, true
}

// CommentType classifies a comment placed on post by user.
//
// Comments on questions resolve directly from Content. Comments on answers
// additionally resolve the root question's ownership to pick one of the
// four COMMENT_{MA,OA}_{MQ,OQ} labels. Returns false when either the post
// or its parent question cannot be resolved.
func (r *Registry) CommentType(post PostID, user UserID) (ActionType, bool) {
	ct, ok := r.Content(post, user)
	if !ok {
		return 0, false
	}

	switch ct {
	case MyQuestion:
		return CommentMQ, true
	case OtherQuestion:
		return CommentOQ, true
	}

	// Comment was on an answer. Was the question our own?
	p, _ := r.posts[post]
	qt, ok := r.Content(*p.Parent, user)
	if !ok {
		return 0, false
	}
	if qt == MyQuestion {
		if ct == MyAnswer {
			return CommentMAMQ, true
		}
		return CommentOAMQ, true
	}
	if ct == MyAnswer {
		return CommentMAOQ, true
	}
	return CommentOAOQ, true
}
