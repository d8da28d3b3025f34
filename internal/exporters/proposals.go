package exporters

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const votesQuery = `{
  votes(first: %d, orderBy: startDate, orderDirection: desc) {
    voteNum
    creator
    metadata
    executed
    startDate
    supportRequiredPct
    minAcceptQuorum
    yea
    nay
    votingPower
    castCount
  }
}`

// Vote is a governance vote as returned by the voting subgraph. Numeric
// fields are raw 18-decimal integers encoded as strings.
type Vote struct {
	VoteNum            string `json:"voteNum"`
	Creator            string `json:"creator"`
	Metadata           string `json:"metadata"`
	Executed           bool   `json:"executed"`
	StartDate          string `json:"startDate"`
	SupportRequiredPct string `json:"supportRequiredPct"`
	MinAcceptQuorum    string `json:"minAcceptQuorum"`
	Yea                string `json:"yea"`
	Nay                string `json:"nay"`
	VotingPower        string `json:"votingPower"`
	CastCount          string `json:"castCount"`
}

// Proposal is a vote with derived percentages, written to proposals.json.
type Proposal struct {
	ID                 int     `json:"id"`
	VoteNum            string  `json:"voteNum"`
	Creator            string  `json:"creator"`
	Metadata           string  `json:"metadata"`
	Executed           bool    `json:"executed"`
	StartDate          string  `json:"startDate"`
	SupportRequiredPct float64 `json:"supportRequiredPct"`
	MinAcceptQuorum    float64 `json:"minAcceptQuorum"`
	Yea                float64 `json:"yea"`
	Nay                float64 `json:"nay"`
	VotingPower        float64 `json:"votingPower"`
	CastCount          string  `json:"castCount"`
	HaveSupport        bool    `json:"haveSupport"`
	HaveQuorum         bool    `json:"haveQuorum"`
}

// Subgraph queries the governance voting subgraph.
type Subgraph struct {
	url    string
	client *http.Client
	logger *zap.Logger
}

// NewSubgraph builds a subgraph client.
func NewSubgraph(url string, timeout time.Duration, logger *zap.Logger) *Subgraph {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Subgraph{url: url, client: newHTTPClient(timeout), logger: logger}
}

type graphQLRequest struct {
	Query string `json:"query"`
}

type graphQLError struct {
	Message string `json:"message"`
}

type votesResponse struct {
	Data struct {
		Votes []Vote `json:"votes"`
	} `json:"data"`
	Errors []graphQLError `json:"errors"`
}

// FetchVotes returns the latest first votes, newest first.
func (s *Subgraph) FetchVotes(ctx context.Context, first int) ([]Vote, error) {
	var resp votesResponse
	req := graphQLRequest{Query: fmt.Sprintf(votesQuery, first)}
	if err := doJSON(ctx, s.client, http.MethodPost, s.url, req, &resp); err != nil {
		return nil, fmt.Errorf("fetch votes: %w", err)
	}
	if len(resp.Errors) > 0 {
		messages := make([]string, 0, len(resp.Errors))
		for _, e := range resp.Errors {
			messages = append(messages, e.Message)
		}
		return nil, fmt.Errorf("fetch votes: graphql: %s", strings.Join(messages, "; "))
	}
	s.logger.Info("votes fetched", zap.Int("votes", len(resp.Data.Votes)))
	return resp.Data.Votes, nil
}

// BuildProposals derives vote percentages, support and quorum. The list
// index becomes the proposal id.
func BuildProposals(votes []Vote) ([]Proposal, error) {
	out := make([]Proposal, 0, len(votes))
	for i, v := range votes {
		yea, err := formatUnits(v.Yea)
		if err != nil {
			return nil, fmt.Errorf("vote %s yea: %w", v.VoteNum, err)
		}
		nay, err := formatUnits(v.Nay)
		if err != nil {
			return nil, fmt.Errorf("vote %s nay: %w", v.VoteNum, err)
		}
		minQuorum, err := formatUnits(v.MinAcceptQuorum)
		if err != nil {
			return nil, fmt.Errorf("vote %s minAcceptQuorum: %w", v.VoteNum, err)
		}
		supportRequired, err := formatUnits(v.SupportRequiredPct)
		if err != nil {
			return nil, fmt.Errorf("vote %s supportRequiredPct: %w", v.VoteNum, err)
		}
		votingPower, err := formatUnits(v.VotingPower)
		if err != nil {
			return nil, fmt.Errorf("vote %s votingPower: %w", v.VoteNum, err)
		}

		total := yea + nay
		var yeaPct, nayPct float64
		if total > 0 {
			yeaPct = yea * 100 / total
			nayPct = nay * 100 / total
		}

		out = append(out, Proposal{
			ID:                 i,
			VoteNum:            v.VoteNum,
			Creator:            v.Creator,
			Metadata:           metadataText(v.Metadata),
			Executed:           v.Executed,
			StartDate:          v.StartDate,
			SupportRequiredPct: round2(supportRequired),
			MinAcceptQuorum:    round2(minQuorum),
			Yea:                round2(yeaPct),
			Nay:                round2(nayPct),
			VotingPower:        votingPower,
			CastCount:          v.CastCount,
			HaveSupport:        yeaPct >= supportRequired*100,
			HaveQuorum:         total*100/votingPower > minQuorum*100,
		})
	}
	return out, nil
}

// metadataText returns the text field of JSON metadata, or the metadata
// unchanged when it is not JSON.
func metadataText(metadata string) string {
	if metadata == "" {
		return metadata
	}
	var doc struct {
		Text string `json:"text"`
	}
	if err := json.Unmarshal([]byte(metadata), &doc); err != nil {
		return metadata
	}
	return doc.Text
}

func formatUnits(raw string) (float64, error) {
	if raw == "" {
		return 0, nil
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return 0, err
	}
	return d.Shift(-18).InexactFloat64(), nil
}

func round2(v float64) float64 {
	return decimal.NewFromFloat(v).Round(2).InexactFloat64()
}
