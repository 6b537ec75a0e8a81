package devserver

import (
	"net/http"
	"strings"

	"github.com/jrsteele09/go-tender-client/api"
)

const maxPageSize = 100

// paginate filters items by the search query and slices out the requested
// page. It reports false after writing a 400 for malformed paging params.
func paginate[T any](w http.ResponseWriter, r *http.Request, items []T, match func(T, string) bool) (api.Page[T], bool) {
	page, okPage := queryInt(r, "page", 1)
	size, okSize := queryInt(r, "page_size", api.DefaultPageSize)
	if !okPage || !okSize {
		writeError(w, http.StatusBadRequest, "page and page_size must be positive integers")
		return api.Page[T]{}, false
	}
	size = min(size, maxPageSize)

	search := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("search")))
	filtered := items
	if search != "" && match != nil {
		filtered = nil
		for _, item := range items {
			if match(item, search) {
				filtered = append(filtered, item)
			}
		}
	}

	out := api.Page[T]{Results: []T{}, Count: len(filtered)}
	start := (page - 1) * size
	if start < len(filtered) {
		end := min(start+size, len(filtered))
		out.Results = filtered[start:end]
	}
	return out, true
}

func containsFold(search string, fields ...string) bool {
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), search) {
			return true
		}
	}
	return false
}

func (s *Server) todayUpdateCountHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.data.counts)
}

func (s *Server) listProjectsHandler(w http.ResponseWriter, r *http.Request) {
	page, ok := paginate(w, r, s.data.projects, func(p api.Project, q string) bool {
		return containsFold(q, p.Title, p.DistrictShow, p.ClassifyShow)
	})
	if ok {
		writeJSON(w, http.StatusOK, page)
	}
}

func (s *Server) getProjectHandler(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	for _, p := range s.data.projects {
		if string(p.ProjectID) != id {
			continue
		}
		detail := api.ProjectDetail{Project: p, BidSections: []api.BidSection{}}
		for _, sec := range s.data.sections {
			if sec.ProjectID == p.ProjectID {
				detail.BidSections = append(detail.BidSections, sec)
			}
		}
		detail.HTMLContent = "<p>Tender announcement for " + p.Title + ".</p>"
		writeJSON(w, http.StatusOK, detail)
		return
	}
	writeDetail(w, http.StatusNotFound, "project not found")
}

func (s *Server) listBidSectionsHandler(w http.ResponseWriter, r *http.Request) {
	sections := s.data.sections
	if projectID := r.URL.Query().Get("project_id"); projectID != "" {
		sections = nil
		for _, sec := range s.data.sections {
			if string(sec.ProjectID) == projectID {
				sections = append(sections, sec)
			}
		}
	}
	page, ok := paginate(w, r, sections, func(sec api.BidSection, q string) bool {
		return containsFold(q, sec.SectionName, sec.WinningBidder)
	})
	if ok {
		writeJSON(w, http.StatusOK, page)
	}
}

func (s *Server) getBidsHandler(w http.ResponseWriter, r *http.Request) {
	bids, ok := s.data.bids[r.PathValue("id")]
	if !ok {
		writeDetail(w, http.StatusNotFound, "bid section not found")
		return
	}
	writeJSON(w, http.StatusOK, bids)
}

func (s *Server) listBidResultsHandler(w http.ResponseWriter, r *http.Request) {
	page, ok := paginate(w, r, s.data.results, func(res api.BidResult, q string) bool {
		return containsFold(q, res.SectionName, res.BidderName)
	})
	if ok {
		writeJSON(w, http.StatusOK, page)
	}
}

// getBidResultHandler lists the ranked results of one bid section.
func (s *Server) getBidResultHandler(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	results := []api.BidResult{}
	for _, res := range s.data.results {
		if string(res.SectionID) == id {
			results = append(results, res)
		}
	}
	if len(results) == 0 {
		writeDetail(w, http.StatusNotFound, "no results for this section")
		return
	}
	writeJSON(w, http.StatusOK, api.Page[api.BidResult]{Results: results, Count: len(results)})
}

func (s *Server) companySearchHandler(w http.ResponseWriter, r *http.Request) {
	query := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("query")))
	if query == "" {
		writeError(w, http.StatusBadRequest, "query is required")
		return
	}
	matches := []api.Company{}
	for _, c := range s.data.companies {
		if containsFold(query, c.Name, c.CorpCode) {
			matches = append(matches, c)
		}
	}
	writeJSON(w, http.StatusOK, matches)
}

func (s *Server) companyBidsHandler(w http.ResponseWriter, r *http.Request) {
	corpCode := r.URL.Query().Get("corp_code")
	if corpCode == "" {
		writeError(w, http.StatusBadRequest, "corp_code is required")
		return
	}
	page, ok := paginate(w, r, s.data.companyBids[corpCode], nil)
	if ok {
		writeJSON(w, http.StatusOK, page)
	}
}

func (s *Server) companyAchievementHandler(w http.ResponseWriter, r *http.Request) {
	a, ok := s.data.achievements[r.PathValue("id")]
	if !ok {
		writeDetail(w, http.StatusNotFound, "no achievement on record")
		return
	}
	writeJSON(w, http.StatusOK, a)
}
