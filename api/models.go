package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// ID is an identifier the backend emits either as a JSON number or a string.
type ID string

func (id *ID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*id = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*id = ID(s)
		return nil
	}
	*id = ID(b)
	return nil
}

func (id ID) String() string {
	return string(id)
}

// Amount is a monetary value. The backend serialises decimals as strings in
// some views and as numbers in others.
type Amount float64

func (a *Amount) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(string(b))
	if s == "null" {
		*a = 0
		return nil
	}
	if strings.HasPrefix(s, `"`) {
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		s = strings.TrimSpace(s)
		if s == "" {
			*a = 0
			return nil
		}
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fmt.Errorf("invalid amount %s: %w", string(b), err)
	}
	*a = Amount(f)
	return nil
}

// StringList decodes either a single string or an array of strings.
type StringList []string

func (l *StringList) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	switch {
	case bytes.Equal(b, []byte("null")):
		*l = nil
		return nil
	case len(b) > 0 && b[0] == '[':
		var items []string
		if err := json.Unmarshal(b, &items); err != nil {
			return err
		}
		*l = items
		return nil
	default:
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		if s == "" {
			*l = nil
			return nil
		}
		*l = StringList{s}
		return nil
	}
}

// UpdateCounts is the number of records added today per list.
type UpdateCounts struct {
	ProjectCount   int `json:"project_count"`
	BidCount       int `json:"bid_count"`
	BidResultCount int `json:"bid_result_count"`
}

type Project struct {
	ProjectID    ID     `json:"project_id"`
	Title        string `json:"title"`
	DistrictShow string `json:"district_show,omitempty"`
	ClassifyShow string `json:"classify_show,omitempty"`
	TimeShow     string `json:"time_show,omitempty"`
	OpenTime     string `json:"open_time,omitempty"`
}

// ProjectDetail is a project with its bid sections and announcement body.
type ProjectDetail struct {
	Project
	BidSections []BidSection `json:"bid_sections"`
	HTMLContent string       `json:"html_content,omitempty"`
}

type BidSection struct {
	ID            ID     `json:"id"`
	ProjectID     ID     `json:"project_id"`
	SectionID     ID     `json:"section_id,omitempty"`
	SectionName   string `json:"section_name"`
	BidSize       int    `json:"bid_size"`
	LotCtlAmt     Amount `json:"lot_ctl_amt"`
	WinningBidder string `json:"winning_bidder,omitempty"`
	WinningAmount Amount `json:"winning_amount,omitempty"`
	Status        string `json:"status,omitempty"`
	InfoSource    string `json:"info_source,omitempty"`
	BidOpenTime   string `json:"bid_open_time,omitempty"`
}

// Pending reports whether the section has not been opened yet.
func (s BidSection) Pending() bool {
	return s.Status == "pending"
}

type Bid struct {
	ID          ID     `json:"id"`
	ProjectID   ID     `json:"project_id,omitempty"`
	SectionName string `json:"section_name,omitempty"`
	BidderName  string `json:"bidder_name"`
	BidAmount   Amount `json:"bid_amount"`
	LotCtlAmt   Amount `json:"lot_ctl_amt,omitempty"`
	BidOpenTime string `json:"bid_open_time,omitempty"`
}

// Discount is the bid's reduction below the control price, in percent.
// ok is false when the section has no control price.
func (b Bid) Discount() (pct float64, ok bool) {
	if b.LotCtlAmt <= 0 {
		return 0, false
	}
	return float64(b.LotCtlAmt-b.BidAmount) / float64(b.LotCtlAmt) * 100, true
}

type BidResult struct {
	ID          ID       `json:"id"`
	ProjectID   ID       `json:"project_id"`
	SectionID   ID       `json:"section_id"`
	SectionName string   `json:"section_name"`
	BidderName  string   `json:"bidder_name"`
	WinAmt      Amount   `json:"win_amt"`
	OpenTime    string   `json:"open_time,omitempty"`
	Rank        int      `json:"rank"`
	Names       []string `json:"names,omitempty"`
	ManagerName string   `json:"manager_name,omitempty"`
}

// SameSection reports whether r ranks in the same bid section as other.
func (r BidResult) SameSection(other BidResult) bool {
	return r.ProjectID == other.ProjectID && r.SectionID == other.SectionID
}

type Company struct {
	ID             ID         `json:"id"`
	Name           string     `json:"name"`
	CorpCode       string     `json:"corp_code"`
	Corp           string     `json:"corp,omitempty"`
	CorpAsset      string     `json:"corp_asset,omitempty"`
	ValidDate      string     `json:"valid_date,omitempty"`
	RegAddress     string     `json:"reg_address,omitempty"`
	Qualifications []string   `json:"qualifications,omitempty"`
	Employees      []Employee `json:"employees,omitempty"`
}

type Employee struct {
	ID       ID         `json:"id"`
	Name     string     `json:"name"`
	Role     string     `json:"role,omitempty"`
	CertCode string     `json:"cert_code,omitempty"`
	Major    StringList `json:"major,omitempty"`
}

// CompanyBid is one bid placed by a company, as listed on its profile.
type CompanyBid struct {
	ID          ID     `json:"id"`
	ProjectID   ID     `json:"project_id"`
	SectionName string `json:"section_name"`
	BidAmount   Amount `json:"bid_amount"`
	BidOpenTime string `json:"bid_open_time,omitempty"`
}

type Achievement struct {
	ProjectName   string `json:"project_name"`
	BidderName    string `json:"bidder_name"`
	WinAmt        Amount `json:"win_amt"`
	TenderOrgName string `json:"tender_org_name,omitempty"`
	AreaCode      string `json:"area_code,omitempty"`
	CreateTime    string `json:"create_time,omitempty"`
	NoticeContent string `json:"notice_content,omitempty"`
}

// ListSimulationLine is one line item of a server-side list simulation.
// Details maps a sample label to the item's simulated price in that sample.
type ListSimulationLine struct {
	Name    string            `json:"name"`
	Price   Amount            `json:"price"`
	Details map[string]Amount `json:"details,omitempty"`
}

type ListSimulationResult struct {
	List  []ListSimulationLine `json:"list"`
	Total Amount               `json:"total"`
}
