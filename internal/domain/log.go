package domain

import (
	"net/url"
	"strconv"
	"strings"
	"time"
)

type ActionKind string

const (
	ActionCreate ActionKind = "CREATE"
	ActionRead   ActionKind = "READ"
	ActionUpdate ActionKind = "UPDATE"
	ActionDelete ActionKind = "DELETE"
)

type EntityKind string

const (
	EntityPlaylist EntityKind = "PLAYLIST"
	EntitySong     EntityKind = "SONG"
	EntityUser     EntityKind = "USER"
)

// EntityIDAll marks list reads that touch a whole collection.
const EntityIDAll = "all"

// DefaultLogLimit applies when the limit parameter is absent or malformed.
const DefaultLogLimit = 100

// ActionKinds returns the closed set of action kinds in declaration order.
func ActionKinds() []ActionKind {
	return []ActionKind{ActionCreate, ActionRead, ActionUpdate, ActionDelete}
}

// EntityKinds returns the closed set of entity kinds in declaration order.
func EntityKinds() []EntityKind {
	return []EntityKind{EntityPlaylist, EntitySong, EntityUser}
}

func ParseActionKind(s string) (ActionKind, bool) {
	for _, k := range ActionKinds() {
		if string(k) == s {
			return k, true
		}
	}
	return "", false
}

func ParseEntityKind(s string) (EntityKind, bool) {
	for _, k := range EntityKinds() {
		if string(k) == s {
			return k, true
		}
	}
	return "", false
}

// ActorSnapshot is the acting user as seen at read time.
type ActorSnapshot struct {
	ID    string `json:"id"`
	Name  string `json:"name,omitempty"`
	Email string `json:"email"`
	Role  Role   `json:"role"`
}

// DisplayName prefers the user's name and falls back to the email.
func (a *ActorSnapshot) DisplayName() string {
	switch {
	case a == nil:
		return "Unknown"
	case a.Name != "":
		return a.Name
	case a.Email != "":
		return a.Email
	default:
		return "Unknown"
	}
}

// LogRecord is one immutable entry of the action log. ActorID is nil for
// anonymous callers, in which case Actor is always nil too.
type LogRecord struct {
	ID         string         `json:"id"`
	Timestamp  time.Time      `json:"timestamp"`
	ActorID    *string        `json:"userId"`
	ActionKind ActionKind     `json:"actionType"`
	EntityKind EntityKind     `json:"entityType"`
	EntityID   string         `json:"entityId"`
	Detail     string         `json:"details,omitempty"`
	Actor      *ActorSnapshot `json:"user"`
}

func (r LogRecord) IsAnonymous() bool {
	return r.ActorID == nil
}

// ActorLabel is what an operator sees in the "user" column.
func (r LogRecord) ActorLabel() string {
	if r.IsAnonymous() {
		return "Anonymous"
	}
	return r.Actor.DisplayName()
}

type LogFilter struct {
	EntityKind *EntityKind
	ActionKind *ActionKind
}

type SortField string

const (
	SortByTimestamp  SortField = "timestamp"
	SortByUser       SortField = "user"
	SortByActionType SortField = "actionType"
	SortByEntityType SortField = "entityType"
)

type SortDirection string

const (
	SortAsc  SortDirection = "asc"
	SortDesc SortDirection = "desc"
)

// UserSortMode selects what "sort by user" orders on. Sorting by the raw
// identifier is the historical behaviour; sorting by name is what operators
// usually expect.
type UserSortMode string

const (
	UserSortByID   UserSortMode = "id"
	UserSortByName UserSortMode = "name"
)

func ParseUserSortMode(s string) UserSortMode {
	if UserSortMode(strings.ToLower(s)) == UserSortByName {
		return UserSortByName
	}
	return UserSortByID
}

type LogSort struct {
	Field     SortField
	Direction SortDirection
	UserMode  UserSortMode
}

func DefaultLogSort() LogSort {
	return LogSort{Field: SortByTimestamp, Direction: SortDesc, UserMode: UserSortByID}
}

func ParseSortField(s string) SortField {
	switch SortField(s) {
	case SortByTimestamp, SortByUser, SortByActionType, SortByEntityType:
		return SortField(s)
	default:
		return SortByTimestamp
	}
}

func ParseSortDirection(s string) SortDirection {
	if SortDirection(strings.ToLower(s)) == SortAsc {
		return SortAsc
	}
	return SortDesc
}

type Page struct {
	Limit  int
	Offset int
}

// Normalize clamps negative values to 0. The limit is never capped: a page
// holds exactly min(limit, remaining) records, so stepping the offset by the
// limit visits every record once. A zero limit selects nothing.
func (p Page) Normalize() Page {
	if p.Limit < 0 {
		p.Limit = 0
	}
	if p.Offset < 0 {
		p.Offset = 0
	}
	return p
}

// LogQuery is the admin log request after parameter parsing.
type LogQuery struct {
	Page       Page
	UserID     string
	EntityKind *EntityKind
	ActionKind *ActionKind
	EntityID   string
	CountOnly  bool
	Metadata   bool
	Sort       LogSort
}

// ParseLogQuery reads the admin log parameters. Parsing is permissive:
// unknown enum values mean "no filter", unknown sort values fall back to
// timestamp/desc and malformed numbers fall back to their defaults.
func ParseLogQuery(v url.Values) LogQuery {
	q := LogQuery{
		Page:      Page{Limit: DefaultLogLimit},
		UserID:    strings.TrimSpace(v.Get("userId")),
		EntityID:  strings.TrimSpace(v.Get("entityId")),
		CountOnly: v.Get("countOnly") == "true",
		Metadata:  v.Get("metadata") == "true",
		Sort:      DefaultLogSort(),
	}

	if l, err := strconv.Atoi(v.Get("limit")); err == nil {
		q.Page.Limit = l
	}
	if o, err := strconv.Atoi(v.Get("offset")); err == nil {
		q.Page.Offset = o
	}
	q.Page = q.Page.Normalize()

	if k, ok := ParseEntityKind(v.Get("entityType")); ok {
		q.EntityKind = &k
	}
	if k, ok := ParseActionKind(v.Get("actionType")); ok {
		q.ActionKind = &k
	}
	if f := v.Get("sortField"); f != "" {
		q.Sort.Field = ParseSortField(f)
	}
	if d := v.Get("sortDirection"); d != "" {
		q.Sort.Direction = ParseSortDirection(d)
	}

	return q
}

func (q LogQuery) Filter() LogFilter {
	return LogFilter{EntityKind: q.EntityKind, ActionKind: q.ActionKind}
}

// EntityScoped reports whether the query targets one entity's history.
func (q LogQuery) EntityScoped() bool {
	return q.EntityKind != nil && q.EntityID != ""
}

type LogMetadata struct {
	ActionTypes []ActionKind `json:"actionTypes"`
	EntityTypes []EntityKind `json:"entityTypes"`
}

func NewLogMetadata() LogMetadata {
	return LogMetadata{ActionTypes: ActionKinds(), EntityTypes: EntityKinds()}
}
