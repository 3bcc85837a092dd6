package api

import (
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/nerrad567/gray-logic-blink/internal/audit"
)

// handleListAuditLogs pages through the audit trail, newest first.
//
// Query parameters: action, pattern_id, source, since (RFC 3339),
// limit (default 50, max 200) and offset.
func (s *Server) handleListAuditLogs(w http.ResponseWriter, r *http.Request) {
	if s.auditRepo == nil {
		writeError(w, http.StatusServiceUnavailable, ErrCodeUnavailable, "audit trail not configured")
		return
	}

	filter, err := parseAuditFilter(r.URL.Query())
	if err != nil {
		writeBadRequest(w, err.Error())
		return
	}

	result, err := s.auditRepo.List(r.Context(), filter)
	if err != nil {
		s.logger.Error("listing audit logs", "error", err)
		writeInternalError(w, "failed to list audit logs")
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func parseAuditFilter(q url.Values) (audit.Filter, error) {
	filter := audit.Filter{
		Action:    q.Get("action"),
		PatternID: q.Get("pattern_id"),
		Source:    q.Get("source"),
	}

	var err error
	if filter.Limit, err = queryInt(q, "limit"); err != nil {
		return audit.Filter{}, err
	}
	if filter.Offset, err = queryInt(q, "offset"); err != nil {
		return audit.Filter{}, err
	}
	if v := q.Get("since"); v != "" {
		if filter.Since, err = time.Parse(time.RFC3339, v); err != nil {
			return audit.Filter{}, fmt.Errorf("since must be an RFC 3339 timestamp")
		}
	}
	return filter, nil
}

// queryInt returns 0 for an absent parameter.
func queryInt(q url.Values, key string) (int, error) {
	v := q.Get(key)
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%s must be a non-negative integer", key)
	}
	return n, nil
}
