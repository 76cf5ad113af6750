package api

import (
	"net/http"

	"github.com/inklane/countersign/internal/config"
	"github.com/inklane/countersign/pkg/openapi"
)

// newSpecHandler builds the OpenAPI document once at startup and serves the
// serialized bytes.
func newSpecHandler(cfg *config.Config, runtime *Runtime) http.HandlerFunc {
	spec := buildSpec(cfg)

	data, err := openapi.MarshalJSON(spec)
	if err != nil {
		runtime.Logger.Error("openapi spec serialization failed", "error", err)
		return func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "spec unavailable", http.StatusInternalServerError)
		}
	}

	return openapi.ServeSpec(data)
}

func buildSpec(cfg *config.Config) *openapi.Spec {
	spec := openapi.NewSpec(cfg.API.Docs.Title, cfg.Version)
	spec.SetDescription(cfg.API.Docs.Description)
	spec.AddServer(cfg.API.BasePath)

	spec.Components.AddSchemas(map[string]*openapi.Schema{
		"Identity": {
			Type: "object",
			Properties: map[string]*openapi.Schema{
				"id":         {Type: "string", Format: "uuid"},
				"email":      {Type: "string"},
				"full_name":  {Type: "string"},
				"role":       {Type: "integer", Description: "1=admin, 2=internal, 3=external", Enum: []any{1, 2, 3}},
				"active":     {Type: "boolean"},
				"created_at": {Type: "string", Format: "date-time"},
				"updated_at": {Type: "string", Format: "date-time"},
			},
		},
		"Workflow": {
			Type: "object",
			Properties: map[string]*openapi.Schema{
				"id":                      {Type: "string", Format: "uuid"},
				"title":                   {Type: "string"},
				"storage_key":             {Type: "string"},
				"filename":                {Type: "string"},
				"created_by":              {Type: "string", Format: "uuid"},
				"internal_reviewer_id":    {Type: "string", Format: "uuid"},
				"external_reviewer_email": {Type: "string"},
				"status": {
					Type:        "integer",
					Description: "0=Draft, 1=PendingInternalReview, 2=InternalApproved, 3=PendingExternalReview, 4=Completed, 5=Rejected",
					Enum:        []any{0, 1, 2, 3, 4, 5},
				},
				"internal_approved_at": {Type: "string", Format: "date-time"},
				"external_approved_at": {Type: "string", Format: "date-time"},
				"created_at":           {Type: "string", Format: "date-time"},
				"updated_at":           {Type: "string", Format: "date-time"},
			},
		},
		"WorkflowSummary": {
			Type: "object",
			Properties: map[string]*openapi.Schema{
				"id":                      {Type: "string", Format: "uuid"},
				"title":                   {Type: "string"},
				"status":                  {Type: "integer"},
				"internal_reviewer_name":  {Type: "string"},
				"external_reviewer_email": {Type: "string"},
				"filename":                {Type: "string"},
			},
		},
		"ExternalUser": {
			Type: "object",
			Properties: map[string]*openapi.Schema{
				"email": {Type: "string"},
				"valid": {Type: "boolean"},
			},
		},
		"Stamp": {
			Type: "object",
			Properties: map[string]*openapi.Schema{
				"id":          {Type: "string", Format: "uuid"},
				"workflow_id": {Type: "string", Format: "uuid"},
				"user_id":     {Type: "string", Format: "uuid", Description: "Absent for anonymous external stamps"},
				"label":       {Type: "string"},
				"page_number": {Type: "integer"},
				"x":           {Type: "number"},
				"y":           {Type: "number"},
				"applied_at":  {Type: "string", Format: "date-time"},
			},
		},
		"StampCommand": {
			Type:     "object",
			Required: []string{"label", "page_number"},
			Properties: map[string]*openapi.Schema{
				"label":       {Type: "string", Example: "APPROVED"},
				"page_number": {Type: "integer", Example: 1},
				"x":           {Type: "number"},
				"y":           {Type: "number"},
			},
		},
		"Receipt": {
			Type: "object",
			Properties: map[string]*openapi.Schema{
				"workflow": openapi.SchemaRef("Workflow"),
				"effects": {
					Type: "array",
					Items: &openapi.Schema{
						Type: "object",
						Properties: map[string]*openapi.Schema{
							"name":  {Type: "string"},
							"ok":    {Type: "boolean"},
							"error": {Type: "string"},
						},
					},
				},
			},
		},
		"Session": {
			Type: "object",
			Properties: map[string]*openapi.Schema{
				"token":      {Type: "string"},
				"expires_at": {Type: "integer", Description: "Unix timestamp"},
				"principal":  openapi.SchemaRef("Identity"),
			},
		},
	})

	spec.Paths["/auth/login"] = &openapi.PathItem{
		Post: &openapi.Operation{
			Summary: "Authenticate with email and password",
			Tags:    []string{"auth"},
			Responses: map[int]*openapi.Response{
				200: openapi.ResponseJSON("Signed session token", "Session"),
				401: openapi.ResponseRef("Unauthorized"),
			},
		},
	}

	spec.Paths["/workflows"] = &openapi.PathItem{
		Get: &openapi.Operation{
			Summary:    "List workflows",
			Tags:       []string{"workflows"},
			Parameters: []*openapi.Parameter{openapi.QueryParam("status", "integer", "Filter by status ordinal", false)},
			Responses: map[int]*openapi.Response{
				200: openapi.ResponseJSON("Paginated workflows", "Workflow"),
				401: openapi.ResponseRef("Unauthorized"),
			},
		},
		Post: &openapi.Operation{
			Summary: "Create a workflow from a multipart PDF upload",
			Tags:    []string{"workflows"},
			Responses: map[int]*openapi.Response{
				201: openapi.ResponseJSON("Created workflow", "Workflow"),
				400: openapi.ResponseRef("BadRequest"),
				401: openapi.ResponseRef("Unauthorized"),
			},
		},
	}

	spec.Paths["/workflows/{id}"] = &openapi.PathItem{
		Get: &openapi.Operation{
			Summary:    "Find a workflow",
			Tags:       []string{"workflows"},
			Parameters: []*openapi.Parameter{openapi.PathParam("id", "Workflow id")},
			Responses: map[int]*openapi.Response{
				200: openapi.ResponseJSON("Workflow", "Workflow"),
				404: openapi.ResponseRef("NotFound"),
			},
		},
		Delete: &openapi.Operation{
			Summary:    "Delete a workflow and its document",
			Tags:       []string{"workflows"},
			Parameters: []*openapi.Parameter{openapi.PathParam("id", "Workflow id")},
			Responses: map[int]*openapi.Response{
				204: {Description: "Deleted"},
				403: openapi.ResponseRef("Forbidden"),
				404: openapi.ResponseRef("NotFound"),
			},
		},
	}

	spec.Paths["/workflows/{id}/stamps"] = &openapi.PathItem{
		Get: &openapi.Operation{
			Summary:    "List stamps recorded against a workflow",
			Tags:       []string{"workflows"},
			Parameters: []*openapi.Parameter{openapi.PathParam("id", "Workflow id")},
			Responses: map[int]*openapi.Response{
				200: openapi.ResponseJSON("Stamps", "Stamp"),
				404: openapi.ResponseRef("NotFound"),
			},
		},
	}

	spec.Paths["/review/internal/{id}/approve"] = &openapi.PathItem{
		Post: &openapi.Operation{
			Summary:     "Internally approve a workflow",
			Description: "Records a stamp, issues an external access credential, and advances the workflow to PendingExternalReview.",
			Tags:        []string{"review"},
			Parameters:  []*openapi.Parameter{openapi.PathParam("id", "Workflow id")},
			RequestBody: openapi.RequestBodyJSON("StampCommand", true),
			Responses: map[int]*openapi.Response{
				200: openapi.ResponseJSON("Approval receipt", "Receipt"),
				403: openapi.ResponseRef("Forbidden"),
				404: openapi.ResponseRef("NotFound"),
				409: openapi.ResponseRef("Conflict"),
			},
		},
	}

	spec.Paths["/review/external/approve"] = &openapi.PathItem{
		Post: &openapi.Operation{
			Summary:     "Externally approve a workflow through an access token",
			Description: "Completes the workflow. The optional workflow_id must belong to the same external reviewer as the token.",
			Tags:        []string{"review"},
			Responses: map[int]*openapi.Response{
				200: openapi.ResponseJSON("Approval receipt", "Receipt"),
				404: openapi.ResponseRef("NotFound"),
				409: openapi.ResponseRef("Conflict"),
				410: openapi.ResponseRef("Gone"),
			},
		},
	}

	spec.Paths["/review/external/workflows"] = &openapi.PathItem{
		Get: &openapi.Operation{
			Summary:    "List workflows visible through an access token",
			Tags:       []string{"review"},
			Parameters: []*openapi.Parameter{openapi.QueryParam("token", "string", "External access token", true)},
			Responses: map[int]*openapi.Response{
				200: openapi.ResponseJSON("Workflow summaries", "WorkflowSummary"),
				404: openapi.ResponseRef("NotFound"),
				410: openapi.ResponseRef("Gone"),
			},
		},
	}

	spec.Paths["/review/external/user"] = &openapi.PathItem{
		Get: &openapi.Operation{
			Summary:    "Identify the external reviewer behind an access token",
			Tags:       []string{"review"},
			Parameters: []*openapi.Parameter{openapi.QueryParam("token", "string", "External access token", true)},
			Responses: map[int]*openapi.Response{
				200: openapi.ResponseJSON("External reviewer identity", "ExternalUser"),
				404: openapi.ResponseRef("NotFound"),
				410: openapi.ResponseRef("Gone"),
			},
		},
	}

	return spec
}
