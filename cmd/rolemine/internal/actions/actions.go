// Copyright (C) 2025 Pelagic AI (oss@pelagic.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package actions defines the closed action taxonomy for Q&A community
// events, the post registry, and the classification functions that map raw
// post/comment/edit records onto canonical action labels.
//
// Notation used in the taxonomy:
//   - MQ: my question
//   - OQ: other's question
//   - MA: my answer
//   - OA: other's answer
//   - MA_MQ etc.: my answer to my question, and so on
package actions

import (
	"errors"
	"fmt"
)

// UserID identifies a community user.
type UserID uint64

// PostID identifies a question or answer post.
type PostID uint64

// HistoryTypeID is the numeric edit-history type code from the PostHistory
// stream.
type HistoryTypeID uint64

// ErrInitSentinel is returned when the Init sentinel is converted to a
// display name. Init marks pre-classification bookkeeping records and must
// never reach output.
var ErrInitSentinel = errors.New("init sentinel has no display name")

// ActionType is one label from the closed action taxonomy.
//
// The numeric values are the wire encoding used in session files and model
// vocabularies; they must not be reordered.
type ActionType uint8

const (
	// Question is posting a new question.
	Question ActionType = iota
	// AnswerMQ is answering one's own question.
	AnswerMQ
	// AnswerOQ is answering another user's question.
	AnswerOQ
	// CommentMQ is commenting on one's own question.
	CommentMQ
	// CommentOQ is commenting on another user's question.
	CommentOQ
	// CommentMAMQ is commenting on one's own answer to one's own question.
	CommentMAMQ
	// CommentMAOQ is commenting on one's own answer to another's question.
	CommentMAOQ
	// CommentOAMQ is commenting on another's answer to one's own question.
	CommentOAMQ
	// CommentOAOQ is commenting on another's answer to another's question.
	CommentOAOQ
	// EditMQ is editing one's own question.
	EditMQ
	// EditOQ is editing another user's question.
	EditOQ
	// EditMA is editing one's own answer.
	EditMA
	// EditOA is editing another user's answer.
	EditOA
	// ModVote is voting in a moderation action.
	ModVote
	// ModAction is any other moderation action.
	ModAction
	// Init is the sentinel for post-creation bookkeeping history records.
	// It is filtered upstream and never emitted.
	Init
)

// NumActions is the model vocabulary size: every real action label, the
// Init sentinel excluded.
const NumActions = int(Init)

var actionNames = [NumActions]string{
	"question",
	"answer (mq)",
	"answer (oq)",
	"comment (mq)",
	"comment (oq)",
	"comment (ma-mq)",
	"comment (ma-oq)",
	"comment (oa-mq)",
	"comment (oa-oq)",
	"edit (mq)",
	"edit (oq)",
	"edit (ma)",
	"edit (oa)",
	"mod vote",
	"mod action",
}

// Name returns the display name for an action label.
//
// Converting the Init sentinel is a distinct error (ErrInitSentinel), not a
// generic out-of-range fault: Init appearing here means an upstream filter
// was skipped.
func (a ActionType) Name() (string, error) {
	if a == Init {
		return "", ErrInitSentinel
	}
	if int(a) >= NumActions {
		return "", fmt.Errorf("unknown action type %d", a)
	}
	return actionNames[a], nil
}

// ContentType describes a post's relationship to an acting user.
type ContentType uint8

const (
	// MyQuestion is a question owned by the acting user.
	MyQuestion ContentType = iota
	// OtherQuestion is a question owned by someone else.
	OtherQuestion
	// MyAnswer is an answer owned by the acting user.
	MyAnswer
	// OtherAnswer is an answer owned by someone else.
	OtherAnswer
)

// ActionCast maps an edit-history type code to an action label for a post
// with the given content relationship.
//
// Codes 1-3 are post-creation bookkeeping (Init, filtered upstream). Codes
// 4-9 are title/body/tag edits and resolve through the content type. Codes
// 10-13 are moderation votes. Everything else is a moderation action.
func ActionCast(id HistoryTypeID, ct ContentType) ActionType {
	switch {
	case id >= 1 && id <= 3:
		return Init
	case id >= 4 && id <= 9:
		switch ct {
		case MyQuestion:
			return EditMQ
		case OtherQuestion:
			return EditOQ
		case MyAnswer:
			return EditMA
		default:
			return EditOA
		}
	case id >= 10 && id <= 13:
		return ModVote
	default:
		return ModAction
	}
}
