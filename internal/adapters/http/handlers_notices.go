package web

import (
	"net/http"
	"time"

	noticestore "parish/internal/adapters/storage/notice"
	"parish/internal/application/orchestrators"
	"parish/internal/domain/notice"
)

type noticeBody struct {
	Type         string `json:"type"`
	Title        string `json:"title"`
	Content      string `json:"content"`
	TargetID     string `json:"target_id"`
	AuthorName   string `json:"author_name"`
	ShowAuthor   bool   `json:"show_author"`
	Color        string `json:"color"`
	VisibleFrom  string `json:"visible_from"`  // RFC3339, empty = immediately
	VisibleUntil string `json:"visible_until"` // RFC3339, empty = indefinite
}

func parseWindow(from, until string) (time.Time, time.Time, error) {
	var f, u time.Time
	var err error
	if from != "" {
		if f, err = time.Parse(time.RFC3339, from); err != nil {
			return f, u, err
		}
	}
	if until != "" {
		if u, err = time.Parse(time.RFC3339, until); err != nil {
			return f, u, err
		}
	}
	return f, u, nil
}

// handleNotices handles GET /api/notices (staff list of all notices) and POST
// (create a draft).
func handleNotices(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	switch r.Method {
	case "GET":
		if _, ok := requireStaff(w, r); !ok {
			return
		}
		notices, err := stores.NoticeStore.List(ctx, noticestore.ListFilter{
			Type:     r.URL.Query().Get("type"),
			Status:   r.URL.Query().Get("status"),
			TargetID: r.URL.Query().Get("target_id"),
			Limit:    queryInt(r, "limit", 50, 200),
		})
		if err != nil {
			internalError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, notices)

	case "POST":
		sess, ok := requireStaff(w, r)
		if !ok {
			return
		}
		var body noticeBody
		if err := strictDecode(r, &body); err != nil {
			http.Error(w, "invalid request", http.StatusBadRequest)
			return
		}
		visibleFrom, visibleUntil, err := parseWindow(body.VisibleFrom, body.VisibleUntil)
		if err != nil {
			http.Error(w, "visibility window must be RFC3339", http.StatusBadRequest)
			return
		}

		n, err := orchestrators.ExecuteCreateNotice(ctx, orchestrators.CreateNoticeInput{
			Type:         body.Type,
			Title:        body.Title,
			Content:      body.Content,
			TargetID:     body.TargetID,
			AuthorName:   body.AuthorName,
			ShowAuthor:   body.ShowAuthor,
			Color:        body.Color,
			VisibleFrom:  visibleFrom,
			VisibleUntil: visibleUntil,
			CreatedBy:    sess.AccountID,
		}, orchestrators.CreateNoticeDeps{
			NoticeStore: stores.NoticeStore,
			Ministries:  stores.MinistryStore,
			Events:      stores.EventStore,
			GenerateID:  generateID,
			Now:         timeNow,
		})
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		writeJSON(w, http.StatusCreated, n)

	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

// handleNoticeDetail handles GET /api/notices/{id}, PUT (edit), and DELETE.
func handleNoticeDetail(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	noticeID := pathPart(r, 2)

	switch r.Method {
	case "GET":
		if _, ok := requireStaff(w, r); !ok {
			return
		}
		n, err := stores.NoticeStore.GetByID(ctx, noticeID)
		if err != nil {
			http.Error(w, "notice not found", http.StatusNotFound)
			return
		}
		writeJSON(w, http.StatusOK, n)

	case "PUT":
		if _, ok := requireStaff(w, r); !ok {
			return
		}
		var body noticeBody
		if err := strictDecode(r, &body); err != nil {
			http.Error(w, "invalid request", http.StatusBadRequest)
			return
		}
		visibleFrom, visibleUntil, err := parseWindow(body.VisibleFrom, body.VisibleUntil)
		if err != nil {
			http.Error(w, "visibility window must be RFC3339", http.StatusBadRequest)
			return
		}

		n, err := orchestrators.ExecuteEditNotice(ctx, orchestrators.EditNoticeInput{
			NoticeID:          noticeID,
			Title:             body.Title,
			Content:           body.Content,
			Type:              body.Type,
			TargetID:          body.TargetID,
			AuthorName:        body.AuthorName,
			ShowAuthor:        body.ShowAuthor,
			Color:             body.Color,
			VisibleFrom:       visibleFrom,
			VisibleUntil:      visibleUntil,
			ClearVisibleFrom:  body.VisibleFrom == "",
			ClearVisibleUntil: body.VisibleUntil == "",
		}, orchestrators.EditNoticeDeps{
			NoticeStore: stores.NoticeStore,
			Ministries:  stores.MinistryStore,
			Events:      stores.EventStore,
			Now:         timeNow,
		})
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		writeJSON(w, http.StatusOK, n)

	case "DELETE":
		if _, ok := requireStaff(w, r); !ok {
			return
		}
		if _, err := stores.NoticeStore.GetByID(ctx, noticeID); err != nil {
			http.Error(w, "notice not found", http.StatusNotFound)
			return
		}
		if err := stores.NoticeStore.Delete(ctx, noticeID); err != nil {
			internalError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)

	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

// handlePublishNotice handles POST /api/notices/{id}/publish.
func handlePublishNotice(w http.ResponseWriter, r *http.Request) {
	if r.Method != "POST" {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	sess, ok := requireStaff(w, r)
	if !ok {
		return
	}

	n, err := orchestrators.ExecutePublishNotice(r.Context(), orchestrators.PublishNoticeInput{
		NoticeID:    pathPart(r, 2),
		PublisherID: sess.AccountID,
	}, orchestrators.PublishNoticeDeps{
		NoticeStore: stores.NoticeStore,
		Now:         timeNow,
	})
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusOK, n)
}

// handlePinNotice handles POST /api/notices/{id}/pin and .../unpin.
func handlePinNotice(w http.ResponseWriter, r *http.Request) {
	if r.Method != "POST" {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if _, ok := requireStaff(w, r); !ok {
		return
	}

	n, err := orchestrators.ExecutePinNotice(r.Context(), orchestrators.PinNoticeInput{
		NoticeID: pathPart(r, 2),
		Pinned:   pathPart(r, 3) == "pin",
	}, orchestrators.PinNoticeDeps{
		NoticeStore: stores.NoticeStore,
		Now:         timeNow,
	})
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusOK, n)
}

// boardNotice is a published notice shaped for display, with the markdown
// already rendered.
type boardNotice struct {
	ID          string    `json:"id"`
	Type        string    `json:"type"`
	Title       string    `json:"title"`
	HTML        string    `json:"html"`
	AuthorName  string    `json:"author_name,omitempty"`
	Color       string    `json:"color"`
	ColorHex    string    `json:"color_hex"`
	Pinned      bool      `json:"pinned"`
	PublishedAt time.Time `json:"published_at"`
}

// handleNoticeBoard handles GET /api/board: the published notices any
// signed-in member sees, pinned first.
func handleNoticeBoard(w http.ResponseWriter, r *http.Request) {
	if r.Method != "GET" {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if _, ok := requireSession(w, r); !ok {
		return
	}

	noticeType := r.URL.Query().Get("type")
	if noticeType == "" {
		noticeType = notice.TypeParishWide
	}
	notices, err := stores.NoticeStore.ListPublished(r.Context(), noticeType,
		r.URL.Query().Get("target_id"), timeNow())
	if err != nil {
		internalError(w, err)
		return
	}

	board := make([]boardNotice, 0, len(notices))
	for _, n := range notices {
		html, err := renderMarkdown(n.Content)
		if err != nil {
			internalError(w, err)
			return
		}
		b := boardNotice{
			ID:          n.ID,
			Type:        n.Type,
			Title:       n.Title,
			HTML:        html,
			Color:       n.Color,
			ColorHex:    notice.ColorHex[n.Color],
			Pinned:      n.Pinned,
			PublishedAt: n.PublishedAt,
		}
		if n.ShowAuthor {
			b.AuthorName = n.AuthorName
		}
		board = append(board, b)
	}
	writeJSON(w, http.StatusOK, board)
}
