package devserver

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/jrsteele09/go-tender-client/api"
	apperrors "github.com/jrsteele09/go-tender-client/internal/errors"
	"github.com/jrsteele09/go-tender-client/simulate"
)

const maxUploadSize = 8 << 20

// listSimulatorHandler runs the list-price simulation over an uploaded CSV
// of line items. Each line's price is its mean over all samples; with
// include_full_data the per-sample prices come back as details.
func (s *Server) listSimulatorHandler(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		writeError(w, http.StatusBadRequest, "expected a multipart form")
		return
	}
	file, _, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "file is required")
		return
	}
	defer file.Close() //nolint:errcheck

	items, err := simulate.ReadLineItems(file)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var groups []simulate.PriceGroup
	if err := json.Unmarshal([]byte(r.FormValue("price_groups")), &groups); err != nil {
		writeError(w, http.StatusBadRequest, "price_groups must be a JSON array")
		return
	}
	full, _ := strconv.ParseBool(r.FormValue("include_full_data"))

	res, err := s.simulator.Simulate(items, groups)
	if apperrors.Is(err, apperrors.ErrValidation) {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err != nil {
		s.logger.Error().Err(err).Msg("list simulation")
		writeError(w, http.StatusInternalServerError, "simulation failed")
		return
	}
	writeJSON(w, http.StatusOK, listSimulationResponse(res, full))
}

func listSimulationResponse(res *simulate.Result, full bool) api.ListSimulationResult {
	means := res.ItemMeans()
	samples := res.Samples()

	out := api.ListSimulationResult{
		List:  make([]api.ListSimulationLine, len(res.Items)),
		Total: api.Amount(res.Stats.Mean),
	}
	for i, item := range res.Items {
		line := api.ListSimulationLine{Name: item.Name, Price: api.Amount(means[i])}
		if full {
			line.Details = make(map[string]api.Amount, len(samples))
			for n, sample := range samples {
				line.Details[fmt.Sprintf("sample %d", n+1)] = api.Amount(sample.Prices[i])
			}
		}
		out.List[i] = line
	}
	return out
}
