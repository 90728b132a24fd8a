// Package normalize converts heterogeneous backend payload shapes into
// the canonical per-kind record shape. The backend is inconsistent about
// identifier fields (`_id` vs `id`) and omits optional fields freely, so
// every accessor here substitutes a documented default instead of
// failing. The only malformed payload is one with no identifier at all.
package normalize

import (
	"fmt"
	"time"

	"github.com/spec-kit/admin-sync/internal/domain"
	"github.com/spec-kit/admin-sync/pkg/util"
)

// Entity maps one raw backend payload to its canonical record.
// Pure, no I/O. Returns util.ErrMissingID (wrapped) when the payload
// carries neither `id` nor `_id`.
func Entity(kind domain.Kind, raw map[string]any) (domain.Entity, error) {
	id := str(raw, "", "id", "_id")
	if id == "" {
		return nil, fmt.Errorf("normalize %s: %w", kind, util.ErrMissingID)
	}

	switch kind {
	case domain.KindUsers:
		return user(id, raw), nil
	case domain.KindPosts:
		return post(id, raw), nil
	case domain.KindReports:
		return report(id, raw), nil
	case domain.KindAnnouncements:
		return announcement(id, raw), nil
	case domain.KindTickets:
		return ticket(id, raw), nil
	}
	return nil, fmt.Errorf("normalize: unknown entity kind %q", kind)
}

// Many maps a fetched batch, failing on the first malformed payload so
// the whole collection fetch surfaces one error.
func Many(kind domain.Kind, raws []map[string]any) ([]domain.Entity, error) {
	entities := make([]domain.Entity, 0, len(raws))
	for _, raw := range raws {
		entity, err := Entity(kind, raw)
		if err != nil {
			return nil, err
		}
		entities = append(entities, entity)
	}
	return entities, nil
}

func user(id string, raw map[string]any) domain.User {
	return domain.User{
		ID:               id,
		Email:            str(raw, "", "email"),
		Name:             str(raw, "", "name"),
		Status:           domain.UserStatus(str(raw, string(domain.UserStatusPending), "status")),
		IsVerified:       boolean(raw, "isVerified"),
		IsPremium:        boolean(raw, "isPremium"),
		Role:             str(raw, "", "role"),
		RegistrationDate: when(raw, "registrationDate", "createdAt"),
		UpdatedAt:        when(raw, "updatedAt"),
	}
}

func post(id string, raw map[string]any) domain.Post {
	author, _ := raw["author"].(map[string]any)
	return domain.Post{
		ID:         id,
		AuthorID:   str(author, str(raw, "", "authorId"), "id", "_id"),
		AuthorName: str(author, str(raw, "", "authorName"), "name"),
		Content:    str(raw, "", "content"),
		Status:     domain.PostStatus(str(raw, string(domain.PostStatusPending), "status")),
		Likes:      integer(raw, "likes"),
		Comments:   integer(raw, "comments"),
		Timestamp:  when(raw, "timestamp", "createdAt"),
	}
}

func report(id string, raw map[string]any) domain.Report {
	return domain.Report{
		ID:          id,
		ContentType: str(raw, "", "contentType"),
		ContentID:   str(raw, "", "contentId"),
		ReportedBy:  str(raw, "", "reportedBy"),
		Reason:      str(raw, "", "reason"),
		Status:      domain.ReportStatus(str(raw, string(domain.ReportStatusPending), "status")),
		Timestamp:   when(raw, "timestamp", "createdAt"),
	}
}

func announcement(id string, raw map[string]any) domain.Announcement {
	return domain.Announcement{
		ID:             id,
		Title:          str(raw, "", "title"),
		Content:        str(raw, "", "content"),
		Author:         str(raw, "", "author"),
		IsActive:       boolean(raw, "isActive"),
		TargetAudience: str(raw, "", "targetAudience"),
		Timestamp:      when(raw, "timestamp", "createdAt"),
	}
}

func ticket(id string, raw map[string]any) domain.Ticket {
	var assignedTo *string
	if v := str(raw, "", "assignedTo"); v != "" {
		assignedTo = &v
	}

	replies := []domain.TicketReply{}
	if rawReplies, ok := raw["replies"].([]any); ok {
		for _, item := range rawReplies {
			entry, ok := item.(map[string]any)
			if !ok {
				continue
			}
			replies = append(replies, domain.TicketReply{
				Message:   str(entry, "", "message"),
				IsAdmin:   boolean(entry, "isAdmin", "authorIsAdmin"),
				Timestamp: when(entry, "timestamp", "createdAt"),
			})
		}
	}

	return domain.Ticket{
		ID:         id,
		Subject:    str(raw, "", "subject"),
		Message:    str(raw, "", "message"),
		Category:   str(raw, "", "category"),
		Priority:   domain.TicketPriority(str(raw, string(domain.TicketPriorityMedium), "priority")),
		Status:     domain.TicketStatus(str(raw, string(domain.TicketStatusOpen), "status")),
		UserID:     str(raw, "", "userId", "user"),
		AssignedTo: assignedTo,
		Replies:    replies,
		CreatedAt:  when(raw, "createdAt"),
		UpdatedAt:  when(raw, "updatedAt"),
	}
}

func str(raw map[string]any, fallback string, keys ...string) string {
	for _, key := range keys {
		if v, ok := raw[key].(string); ok && v != "" {
			return v
		}
	}
	return fallback
}

func boolean(raw map[string]any, keys ...string) bool {
	for _, key := range keys {
		if v, ok := raw[key].(bool); ok {
			return v
		}
	}
	return false
}

func integer(raw map[string]any, key string) int {
	switch v := raw[key].(type) {
	case float64:
		return int(v)
	case int:
		return v
	}
	return 0
}

// when parses the first present timestamp field. The backend emits
// RFC3339 strings; anything else is treated as absent (zero time), which
// the store interprets as "no version marker".
func when(raw map[string]any, keys ...string) time.Time {
	for _, key := range keys {
		v, ok := raw[key].(string)
		if !ok || v == "" {
			continue
		}
		for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02"} {
			if t, err := time.Parse(layout, v); err == nil {
				return t
			}
		}
	}
	return time.Time{}
}
