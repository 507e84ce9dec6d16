package integration

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/Bri-fat-sen/bfse-management-system-sub006/internal/domain/integration"
	"github.com/Bri-fat-sen/bfse-management-system-sub006/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

const (
	defaultPageSize = 30
	maxPageSize     = 100
)

const listProjectsQuery = `query($login: String!, $first: Int!) {
  %s(login: $login) {
    projectsV2(first: $first) {
      nodes { id number title url closed updatedAt }
    }
  }
}`

const projectItemsQuery = `query($projectId: ID!, $first: Int!) {
  node(id: $projectId) {
    ... on ProjectV2 {
      id
      title
      items(first: $first) {
        nodes {
          id
          type
          content {
            ... on Issue { id number title url state }
            ... on PullRequest { id number title url state }
            ... on DraftIssue { id title }
          }
          fieldValues(first: 20) {
            nodes {
              ... on ProjectV2ItemFieldSingleSelectValue {
                name
                optionId
                field { ... on ProjectV2FieldCommon { id name } }
              }
            }
          }
        }
      }
    }
  }
}`

const addItemMutation = `mutation($projectId: ID!, $contentId: ID!) {
  addProjectV2ItemById(input: {projectId: $projectId, contentId: $contentId}) {
    item { id }
  }
}`

const updateStatusMutation = `mutation($projectId: ID!, $itemId: ID!, $fieldId: ID!, $optionId: String!) {
  updateProjectV2ItemFieldValue(input: {
    projectId: $projectId
    itemId: $itemId
    fieldId: $fieldId
    value: {singleSelectOptionId: $optionId}
  }) {
    projectV2Item { id }
  }
}`

// ActionRequest is one proxied GitHub call
type ActionRequest struct {
	Action integration.Action
	Params integration.Params
}

// UpstreamMetrics counts upstream calls
type UpstreamMetrics interface {
	ObserveUpstream(service, operation string, code int)
}

// GitHubService resolves actions to upstream requests
type GitHubService struct {
	gateway integration.GitHubGateway
	logger  *zap.Logger
	metrics UpstreamMetrics
}

// GitHubOption configures a GitHubService
type GitHubOption func(*GitHubService)

// WithUpstreamMetrics counts every call by action and status
func WithUpstreamMetrics(m UpstreamMetrics) GitHubOption {
	return func(s *GitHubService) {
		s.metrics = m
	}
}

// NewGitHubService creates a GitHubService
func NewGitHubService(gateway integration.GitHubGateway, logger *zap.Logger, opts ...GitHubOption) *GitHubService {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &GitHubService{gateway: gateway, logger: logger}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Execute performs the action and returns the upstream response untouched
func (s *GitHubService) Execute(ctx context.Context, req ActionRequest) (*integration.UpstreamResponse, error) {
	switch req.Action {
	case integration.ActionGetUser,
		integration.ActionListRepos,
		integration.ActionGetRepo,
		integration.ActionListIssues,
		integration.ActionListCommits,
		integration.ActionListPullRequests:
		rest, err := buildREST(req.Action, req.Params)
		if err != nil {
			return nil, err
		}
		return s.call(ctx, req.Action, func(ctx context.Context) (*integration.UpstreamResponse, error) {
			return s.gateway.Get(ctx, rest)
		})
	case integration.ActionListProjects,
		integration.ActionGetProjectItems,
		integration.ActionAddItemToProject,
		integration.ActionUpdateItemStatus:
		gql, err := buildGraphQL(req.Action, req.Params)
		if err != nil {
			return nil, err
		}
		return s.call(ctx, req.Action, func(ctx context.Context) (*integration.UpstreamResponse, error) {
			return s.gateway.GraphQL(ctx, gql)
		})
	default:
		return nil, integration.ErrUnknownAction
	}
}

func (s *GitHubService) call(ctx context.Context, action integration.Action, fn func(ctx context.Context) (*integration.UpstreamResponse, error)) (*integration.UpstreamResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "github", string(action),
		telemetry.WithAttribute(telemetry.SpanAttrGitHubAction, string(action)))
	defer span.End()

	resp, err := fn(ctx)
	if err != nil {
		telemetry.RecordError(span, err)
		s.observe(action, 0)
		s.logger.Error("GitHub action failed", zap.String("action", string(action)), zap.Error(err))
		return nil, err
	}
	telemetry.SetAttribute(span, "http.status_code", resp.StatusCode)
	s.observe(action, resp.StatusCode)
	if resp.StatusCode >= 400 {
		s.logger.Warn("GitHub returned error status",
			zap.String("action", string(action)),
			zap.Int("status", resp.StatusCode),
		)
	}
	return resp, nil
}

func (s *GitHubService) observe(action integration.Action, code int) {
	if s.metrics != nil {
		s.metrics.ObserveUpstream("github", string(action), code)
	}
}

func buildREST(action integration.Action, p integration.Params) (integration.RESTRequest, error) {
	perPage := strconv.Itoa(p.Int("per_page", defaultPageSize, maxPageSize))

	if action == integration.ActionGetUser {
		return integration.RESTRequest{Path: "user"}, nil
	}
	if action == integration.ActionListRepos {
		sort := p.String("sort")
		if sort == "" {
			sort = "updated"
		}
		return integration.RESTRequest{
			Path:  "user/repos",
			Query: url.Values{"sort": {sort}, "per_page": {perPage}},
		}, nil
	}

	owner, err := p.Require("owner")
	if err != nil {
		return integration.RESTRequest{}, err
	}
	repo, err := p.Require("repo")
	if err != nil {
		return integration.RESTRequest{}, err
	}
	base := "repos/" + url.PathEscape(owner) + "/" + url.PathEscape(repo)

	state := p.String("state")
	if state == "" {
		state = "open"
	}

	switch action {
	case integration.ActionGetRepo:
		return integration.RESTRequest{Path: base}, nil
	case integration.ActionListIssues:
		return integration.RESTRequest{
			Path:  base + "/issues",
			Query: url.Values{"state": {state}, "per_page": {perPage}},
		}, nil
	case integration.ActionListCommits:
		q := url.Values{"per_page": {perPage}}
		if branch := p.String("branch"); branch != "" {
			q.Set("sha", branch)
		}
		return integration.RESTRequest{Path: base + "/commits", Query: q}, nil
	default:
		return integration.RESTRequest{
			Path:  base + "/pulls",
			Query: url.Values{"state": {state}, "per_page": {perPage}},
		}, nil
	}
}

func buildGraphQL(action integration.Action, p integration.Params) (integration.GraphQLRequest, error) {
	first := p.Int("first", 20, maxPageSize)

	switch action {
	case integration.ActionListProjects:
		owner, err := p.Require("owner")
		if err != nil {
			return integration.GraphQLRequest{}, err
		}
		kind := "user"
		if p.String("owner_type") == "organization" {
			kind = "organization"
		}
		return integration.GraphQLRequest{
			Query:     fmt.Sprintf(listProjectsQuery, kind),
			Variables: map[string]any{"login": owner, "first": first},
		}, nil
	case integration.ActionGetProjectItems:
		projectID, err := p.Require("project_id")
		if err != nil {
			return integration.GraphQLRequest{}, err
		}
		return integration.GraphQLRequest{
			Query:     projectItemsQuery,
			Variables: map[string]any{"projectId": projectID, "first": p.Int("first", 50, maxPageSize)},
		}, nil
	case integration.ActionAddItemToProject:
		vars, err := requireAll(p, "project_id", "content_id")
		if err != nil {
			return integration.GraphQLRequest{}, err
		}
		return integration.GraphQLRequest{
			Query:     addItemMutation,
			Variables: map[string]any{"projectId": vars[0], "contentId": vars[1]},
		}, nil
	default:
		vars, err := requireAll(p, "project_id", "item_id", "field_id", "option_id")
		if err != nil {
			return integration.GraphQLRequest{}, err
		}
		return integration.GraphQLRequest{
			Query: updateStatusMutation,
			Variables: map[string]any{
				"projectId": vars[0],
				"itemId":    vars[1],
				"fieldId":   vars[2],
				"optionId":  vars[3],
			},
		}, nil
	}
}

func requireAll(p integration.Params, keys ...string) ([]string, error) {
	out := make([]string, len(keys))
	for i, k := range keys {
		v, err := p.Require(k)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}
