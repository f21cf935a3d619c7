package calorieninjas

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/bububa/calorielens/components"
	"github.com/bububa/calorielens/schema"
	"github.com/bububa/calorielens/tools"
)

const (
	// Name provider name reported in errors
	Name = "calorieninjas"
	// DefaultBaseURL public CalorieNinjas endpoint
	DefaultBaseURL = "https://api.calorieninjas.com"
	// DefaultTimeout bound of one API call when no other is configured
	DefaultTimeout = 30 * time.Second
	// maxErrorBody bytes of an error response kept for diagnostics
	maxErrorBody = 4 << 10
)

var validate = validator.New()

// Input a natural language food query, e.g. "2 eggs and 1 slice of toast"
type Input struct {
	Query string `json:"query" validate:"required"`
}

// Item nutrition facts of one food matched by the query
type Item = schema.NutritionFacts

// Output the nutrition API response
type Output struct {
	Items []Item `json:"items"`
}

// TotalCalories sum of calories over all items
func (o Output) TotalCalories() float64 {
	var ret float64
	for _, item := range o.Items {
		ret += item.Calories
	}
	return ret
}

// Estimate converts the response into a NutritionEstimate with totals summed locally.
// The query is kept in the notes.
func (o Output) Estimate(query string) *schema.NutritionEstimate {
	items := make([]schema.FoodItem, 0, len(o.Items))
	for _, item := range o.Items {
		items = append(items, schema.FoodItem{
			Name:         item.Name,
			QuantityG:    item.ServingSizeG,
			CaloriesKcal: item.Calories,
			ProteinG:     item.ProteinG,
			CarbsG:       item.CarbohydratesTotalG,
			FatG:         item.FatTotalG,
		})
	}
	var notes *string
	if query != "" {
		v := fmt.Sprintf("CalorieNinjas query: %s", query)
		notes = &v
	}
	return schema.NewEstimateFromItems(items, notes)
}

type Config struct {
	tools.Config
	apiKey     string
	baseURL    string
	httpClient *http.Client
	timeout    time.Duration
}

// Client is a tool resolving food queries through the CalorieNinjas nutrition API
type Client struct {
	Config
}

var _ tools.Tool[Input, Output] = (*Client)(nil)

func New(opts ...Option) *Client {
	ret := new(Client)
	for _, opt := range opts {
		opt(&ret.Config)
	}
	if ret.Title() == "" {
		ret.SetTitle("CalorieNinjas")
	}
	if ret.Description() == "" {
		ret.SetDescription("Looks up calories and macros of a natural language food query")
	}
	if ret.baseURL == "" {
		ret.baseURL = DefaultBaseURL
	}
	if ret.timeout <= 0 {
		ret.timeout = DefaultTimeout
	}
	if ret.httpClient == nil {
		ret.httpClient = &http.Client{Timeout: ret.timeout}
	}
	return ret
}

// Timeout bound of one API call
func (t *Client) Timeout() time.Duration {
	return t.timeout
}

// Run queries the nutrition API once under the configured timeout
func (t *Client) Run(ctx context.Context, input *Input) (*Output, error) {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()
	t.Start(ctx, t, input)
	ret, err := t.run(ctx, input)
	if err != nil {
		return nil, t.Fail(ctx, t, input, err)
	}
	t.End(ctx, t, input, ret)
	return ret, nil
}

func (t *Client) run(ctx context.Context, input *Input) (*Output, error) {
	if t.apiKey == "" {
		return nil, components.NewConfigurationError("CALORIE_NINJAS_API_KEY", "is not set")
	}
	if input == nil {
		return nil, components.NewInvalidInputError("empty food query")
	}
	input.Query = strings.TrimSpace(input.Query)
	if err := validate.Struct(input); err != nil {
		return nil, &components.InvalidInputError{Msg: "empty food query", Err: err}
	}
	values := url.Values{}
	values.Set("query", input.Query)
	reqURL := fmt.Sprintf("%s/v1/nutrition?%s", strings.TrimRight(t.baseURL, "/"), values.Encode())
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, components.NewConfigurationError("calorie_ninjas.base_url", "%v", err)
	}
	httpReq.Header.Set("X-Api-Key", t.apiKey)
	httpResp, err := t.httpClient.Do(httpReq)
	if err != nil {
		return nil, &components.ProviderError{Provider: Name, Err: err}
	}
	defer httpResp.Body.Close()
	if httpResp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(httpResp.Body, maxErrorBody))
		return nil, &components.ProviderError{
			Provider: Name,
			Status:   httpResp.StatusCode,
			Body:     strings.TrimSpace(string(body)),
		}
	}
	body, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, &components.ProviderError{Provider: Name, Status: httpResp.StatusCode, Err: err}
	}
	var ret Output
	if err := json.Unmarshal(body, &ret); err != nil {
		return nil, &components.SchemaValidationError{Raw: string(body), Err: err}
	}
	return &ret, nil
}

// Lookup runs query and converts the answer into a NutritionEstimate.
// The full per item facts are returned alongside.
func (t *Client) Lookup(ctx context.Context, query string) (*schema.NutritionEstimate, []schema.NutritionFacts, error) {
	ret, err := t.Run(ctx, &Input{Query: query})
	if err != nil {
		return nil, nil, err
	}
	return ret.Estimate(query), ret.Items, nil
}
