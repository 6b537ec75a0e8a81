package devserver

import (
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/jrsteele09/go-tender-client/api"
)

const dateLayout = "2006-01-02"

var (
	seedDistricts = []string{"Haidian", "Chaoyang", "Pudong", "Tianhe", "Nanshan", "Jiangbei"}
	seedClassify  = []string{"Construction", "Municipal", "Water Works", "Landscaping"}
	seedWorks     = []string{
		"Riverside Road Widening",
		"No.3 Primary School Extension",
		"Eastern Sewage Pipe Network",
		"Central Park Greening",
		"Metro Line 9 Station Fit-out",
		"Hospital Outpatient Building",
		"Industrial Park Substation",
		"Old Town Drainage Renewal",
		"Library Facade Retrofit",
		"Ring Road Lighting Upgrade",
		"Reservoir Embankment Repair",
		"Sports Centre Roofing",
	}
)

type seedCompany struct {
	api.Company
	bias float64 // fraction below control price this bidder tends to quote
}

var seedCompanies = []seedCompany{
	{Company: api.Company{Name: "North Star Construction Group", CorpCode: "91110000MA01A1", Corp: "Li Wei", CorpAsset: "50000000", RegAddress: "Beijing", Qualifications: []string{"Building Works Grade I", "Municipal Works Grade II"}}, bias: 0.08},
	{Company: api.Company{Name: "Harbour City Engineering", CorpCode: "91310000MA02B2", Corp: "Wang Fang", CorpAsset: "32000000", RegAddress: "Shanghai", Qualifications: []string{"Municipal Works Grade I"}}, bias: 0.11},
	{Company: api.Company{Name: "Pearl River Civil Works", CorpCode: "91440000MA03C3", Corp: "Chen Jie", CorpAsset: "18000000", RegAddress: "Guangzhou", Qualifications: []string{"Water Conservancy Grade II"}}, bias: 0.06},
	{Company: api.Company{Name: "Greenline Landscaping", CorpCode: "91440300MA04D4", Corp: "Zhao Min", CorpAsset: "8000000", RegAddress: "Shenzhen", Qualifications: []string{"Landscaping Grade I"}}, bias: 0.14},
	{Company: api.Company{Name: "Mountain Gate Builders", CorpCode: "91500000MA05E5", Corp: "Liu Yang", CorpAsset: "26000000", RegAddress: "Chongqing", Qualifications: []string{"Building Works Grade II"}}, bias: 0.09},
	{Company: api.Company{Name: "Silverline Electrical", CorpCode: "91110108MA06F6", Corp: "Sun Hao", CorpAsset: "12000000", RegAddress: "Beijing", Qualifications: []string{"Electrical Installation Grade II"}}, bias: 0.05},
}

// dataset is the read-only sample data served by the listing endpoints.
type dataset struct {
	projects     []api.Project
	sections     []api.BidSection
	bids         map[string][]api.Bid // by section id
	results      []api.BidResult
	companies    []api.Company
	companyBids  map[string][]api.CompanyBid // by corp code
	achievements map[string]api.Achievement  // by company id
	counts       api.UpdateCounts
}

// seedData builds the sample data with dates relative to now: project i was
// published i days ago and its sections open a week later. Sections whose
// open date is still ahead are pending.
func seedData(now time.Time) *dataset {
	d := &dataset{
		bids:         make(map[string][]api.Bid),
		companyBids:  make(map[string][]api.CompanyBid),
		achievements: make(map[string]api.Achievement),
	}
	today := now.Format(dateLayout)

	for i, c := range seedCompanies {
		company := c.Company
		company.ID = api.ID(strconv.Itoa(i + 1))
		company.ValidDate = now.AddDate(2, 0, 0).Format(dateLayout)
		company.Employees = []api.Employee{
			{ID: api.ID(fmt.Sprintf("%d01", i+1)), Name: c.Corp, Role: "Legal representative"},
			{ID: api.ID(fmt.Sprintf("%d02", i+1)), Name: "Engineer " + strconv.Itoa(i+1), Role: "Project manager", CertCode: fmt.Sprintf("PM-%04d", 1000+i), Major: api.StringList{"Building", "Municipal"}},
		}
		d.companies = append(d.companies, company)
	}

	sectionID := 0
	bidID := 0
	resultID := 0
	for i, work := range seedWorks {
		published := now.AddDate(0, 0, -i)
		projectID := api.ID(strconv.Itoa(1001 + i))
		project := api.Project{
			ProjectID:    projectID,
			Title:        work,
			DistrictShow: seedDistricts[i%len(seedDistricts)],
			ClassifyShow: seedClassify[i%len(seedClassify)],
			TimeShow:     published.Format(dateLayout),
			OpenTime:     published.AddDate(0, 0, 7).Format(dateLayout),
		}
		d.projects = append(d.projects, project)
		if project.TimeShow == today {
			d.counts.ProjectCount++
		}

		for lot := 1; lot <= 2; lot++ {
			sectionID++
			sid := api.ID(strconv.Itoa(sectionID))
			control := api.Amount(float64(800_000 + 150_000*i + 90_000*lot))
			section := api.BidSection{
				ID:          sid,
				ProjectID:   projectID,
				SectionID:   sid,
				SectionName: fmt.Sprintf("%s Lot %d", work, lot),
				LotCtlAmt:   control,
				InfoSource:  "Public Resource Trading Centre",
				BidOpenTime: project.OpenTime,
				Status:      "pending",
			}
			opened := !published.AddDate(0, 0, 7).After(now)

			bidders := 3 + (i+lot)%3
			var sectionBids []api.Bid
			for b := 0; b < bidders; b++ {
				bidID++
				c := seedCompanies[(i+lot+b)%len(seedCompanies)]
				// deterministic spread around each bidder's usual discount
				offset := float64((i*7+lot*3+b*5)%9-4) / 100
				amount := api.Amount(round2(float64(control) * (1 - c.bias - offset/2)))
				bid := api.Bid{
					ID:          api.ID(strconv.Itoa(bidID)),
					ProjectID:   projectID,
					SectionName: section.SectionName,
					BidderName:  c.Name,
					BidAmount:   amount,
					LotCtlAmt:   control,
					BidOpenTime: section.BidOpenTime,
				}
				sectionBids = append(sectionBids, bid)
				d.companyBids[c.CorpCode] = append(d.companyBids[c.CorpCode], api.CompanyBid{
					ID:          bid.ID,
					ProjectID:   projectID,
					SectionName: section.SectionName,
					BidAmount:   amount,
					BidOpenTime: section.BidOpenTime,
				})
			}
			section.BidSize = len(sectionBids)
			d.bids[string(sid)] = sectionBids

			if opened {
				section.Status = "opened"
				ranked := rankBids(sectionBids)
				for rank, bid := range ranked {
					resultID++
					d.results = append(d.results, api.BidResult{
						ID:          api.ID(strconv.Itoa(resultID)),
						ProjectID:   projectID,
						SectionID:   sid,
						SectionName: section.SectionName,
						BidderName:  bid.BidderName,
						WinAmt:      bid.BidAmount,
						OpenTime:    section.BidOpenTime,
						Rank:        rank + 1,
					})
				}
				section.WinningBidder = ranked[0].BidderName
				section.WinningAmount = ranked[0].BidAmount
				if section.BidOpenTime == today {
					d.counts.BidResultCount++
				}
			}
			if section.BidOpenTime == today || project.TimeShow == today {
				d.counts.BidCount += section.BidSize
			}
			d.sections = append(d.sections, section)
		}
	}

	for _, company := range d.companies {
		best := api.Achievement{}
		for _, r := range d.results {
			if r.BidderName == company.Name && r.Rank == 1 && r.WinAmt > best.WinAmt {
				best = api.Achievement{
					ProjectName:   r.SectionName,
					BidderName:    company.Name,
					WinAmt:        r.WinAmt,
					TenderOrgName: "Municipal Construction Bureau",
					AreaCode:      "110000",
					CreateTime:    r.OpenTime,
					NoticeContent: fmt.Sprintf("%s won %s.", company.Name, r.SectionName),
				}
			}
		}
		if best.ProjectName != "" {
			d.achievements[string(company.ID)] = best
		}
	}
	return d
}

// rankBids orders bids by ascending amount; the lowest compliant bid wins.
func rankBids(bids []api.Bid) []api.Bid {
	ranked := append([]api.Bid(nil), bids...)
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].BidAmount < ranked[j].BidAmount })
	return ranked
}

func round2(v float64) float64 {
	return float64(int64(v*100+0.5)) / 100
}
