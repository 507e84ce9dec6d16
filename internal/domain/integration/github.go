package integration

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/url"
	"strconv"
	"strings"

	"github.com/Bri-fat-sen/bfse-management-system-sub006/internal/domain/shared"
)

// Action names a GitHub operation the proxy can perform
type Action string

// REST actions
const (
	ActionGetUser          Action = "get_user"
	ActionListRepos        Action = "list_repos"
	ActionGetRepo          Action = "get_repo"
	ActionListIssues       Action = "list_issues"
	ActionListCommits      Action = "list_commits"
	ActionListPullRequests Action = "list_pull_requests"
)

// GraphQL actions
const (
	ActionListProjects     Action = "list_projects"
	ActionGetProjectItems  Action = "get_project_items"
	ActionAddItemToProject Action = "add_item_to_project"
	ActionUpdateItemStatus Action = "update_item_status"
)

// Errors
var (
	ErrUnknownAction = shared.InvalidInput("Unknown action")
	ErrGitHubFailed  = shared.NewDomainError(shared.CodeUpstreamFailed, "GitHub request failed")
)

// Params are the action arguments sent alongside the action name
type Params map[string]any

// String returns the named parameter as a trimmed string
func (p Params) String(key string) string {
	switch v := p[key].(type) {
	case string:
		return strings.TrimSpace(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case json.Number:
		return v.String()
	case nil:
		return ""
	default:
		return fmt.Sprint(v)
	}
}

// Require returns the named parameter or an INVALID_INPUT error
func (p Params) Require(key string) (string, error) {
	v := p.String(key)
	if v == "" {
		return "", shared.InvalidInput("Missing required parameter: " + key)
	}
	return v, nil
}

// Int returns the named parameter as an integer clamped to [1, max], or def
func (p Params) Int(key string, def, max int) int {
	var n int
	switch v := p[key].(type) {
	case float64:
		n = int(math.Trunc(v))
	case string:
		parsed, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return def
		}
		n = parsed
	case json.Number:
		parsed, err := v.Int64()
		if err != nil {
			return def
		}
		n = int(parsed)
	default:
		return def
	}
	if n < 1 {
		return def
	}
	if n > max {
		return max
	}
	return n
}

// RESTRequest is a GET against the REST API, path relative to the API root
type RESTRequest struct {
	Path  string
	Query url.Values
}

// GraphQLRequest is a query or mutation document with variables
type GraphQLRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables,omitempty"`
}

// UpstreamResponse is the upstream status and raw JSON body
type UpstreamResponse struct {
	StatusCode int
	Body       json.RawMessage
}

// GitHubGateway is the port the proxy uses to reach GitHub
type GitHubGateway interface {
	Get(ctx context.Context, req RESTRequest) (*UpstreamResponse, error)
	GraphQL(ctx context.Context, req GraphQLRequest) (*UpstreamResponse, error)
}
