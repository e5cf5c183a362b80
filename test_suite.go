package restblog

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"reflect"
	"regexp"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/cucumber/godog"
	"github.com/cucumber/godog/colors"
	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/mongo"
)

type DBSeeder interface {
	Seed(document string, data *godog.Table) error
}

// TestSuite drives a Server in-process through godog scenarios. Redirects
// are never followed automatically.
type TestSuite struct {
	T           *testing.T
	Handler     http.Handler
	Server      *Server
	Resp        *http.Response
	RespBody    []byte
	Storage     map[string]string
	RequestBody []byte
	DbSeeders   map[string]DBSeeder
	Paths       []string
	// Reset runs before every scenario.
	Reset func(ctx context.Context) error
	// Steps registers application specific steps next to the shared ones.
	Steps func(ctx *godog.ScenarioContext)
}

type TestLogger struct {
	T *testing.T
}

var storedValue = regexp.MustCompile(`\{(\w+)\}`)

func NewTestSuite(t *testing.T, server *Server) *TestSuite {
	return &TestSuite{
		T:         t,
		Server:    server,
		Handler:   server.Handler(),
		Storage:   make(map[string]string),
		DbSeeders: make(map[string]DBSeeder),
	}
}

func (ts *TestSuite) RegisterDBSeeder(document string, seeder DBSeeder) {
	ts.DbSeeders[document] = seeder
}

func (ts *TestSuite) InitializeTestSuite(ctx *godog.TestSuiteContext) {
	ctx.BeforeSuite(func() {
		if ts.Storage == nil {
			ts.Storage = make(map[string]string)
		}
	})
}

func (ts *TestSuite) InitializeScenario(ctx *godog.ScenarioContext) {
	ctx.Before(func(c context.Context, sc *godog.Scenario) (context.Context, error) {
		ts.Resp = nil
		ts.RespBody = nil
		ts.RequestBody = nil
		if ts.Reset != nil {
			return c, ts.Reset(c)
		}
		return c, nil
	})

	ctx.Step(`^document "([^"]*)" has the following items$`, ts.documentHasTheFollowingItems)
	ctx.Step(`^I send a (GET|POST|PUT|PATCH|DELETE) request to "([^"]*)"$`, ts.iSendARequestTo)
	ctx.Step(`^I send a POST request to "([^"]*)" with body$`, ts.iSendAPOSTRequestToWithBody)
	ctx.Step(`^I submit the form to "([^"]*)" with$`, ts.iSubmitTheFormToWith)
	ctx.Step(`^the response status should be (\d+)$`, ts.theResponseStatusShouldBe)
	ctx.Step(`^I should be redirected to "([^"]*)"$`, ts.iShouldBeRedirectedTo)
	ctx.Step(`^I follow the redirect$`, ts.iFollowTheRedirect)
	ctx.Step(`^the response should contain "([^"]*)"$`, ts.theResponseShouldContain)
	ctx.Step(`^the response should not contain "([^"]*)"$`, ts.theResponseShouldNotContain)
	ctx.Step(`^the response header "([^"]*)" should be "([^"]*)"$`, ts.theResponseHeaderShouldBe)
	ctx.Step(`^the response header "([^"]*)" should be present$`, ts.theResponseHeaderShouldBePresent)
	ctx.Step(`^the response "([^"]*)" field is stored as "([^"]*)"$`, ts.theResponseFieldIsStoredAs)
	ctx.Step(`^the first match of "([^"]*)" is stored as "([^"]*)"$`, ts.theFirstMatchIsStoredAs)
	ctx.Step(`^the response should contain an item with$`, ts.theResponseShouldContainAnItemWith)

	if ts.Steps != nil {
		ts.Steps(ctx)
	}
}

func (ts *TestSuite) documentHasTheFollowingItems(document string, data *godog.Table) error {
	seeder, ok := ts.DbSeeders[document]
	if !ok {
		return fmt.Errorf("no seeder registered for document %s", document)
	}
	return seeder.Seed(document, data)
}

// expand replaces {name} with the value stored under name.
func (ts *TestSuite) expand(path string) string {
	return storedValue.ReplaceAllStringFunc(path, func(m string) string {
		if v, ok := ts.Storage[m[1:len(m)-1]]; ok {
			return v
		}
		return m
	})
}

func (ts *TestSuite) do(method, path, contentType string, body []byte) error {
	req, err := http.NewRequest(method, ts.expand(path), bytes.NewReader(body))
	if err != nil {
		return err
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	req.RemoteAddr = "192.0.2.1:1234"
	w := httptest.NewRecorder()
	ts.Handler.ServeHTTP(w, req)
	ts.Resp = w.Result()

	defer ts.Resp.Body.Close()
	ts.RespBody, err = io.ReadAll(ts.Resp.Body)
	return err
}

func (ts *TestSuite) iSendARequestTo(method, path string) error {
	return ts.do(method, path, "", nil)
}

func (ts *TestSuite) iSendAPOSTRequestToWithBody(path string, body *godog.Table) error {
	var err error
	ts.RequestBody, err = ts.parseDataTableToJSON(body)
	if err != nil {
		return err
	}
	return ts.do(http.MethodPost, path, "application/json", ts.RequestBody)
}

// iSubmitTheFormToWith posts a two column field/value table as an HTML form.
func (ts *TestSuite) iSubmitTheFormToWith(path string, fields *godog.Table) error {
	form := url.Values{}
	for i, row := range fields.Rows {
		if len(row.Cells) != 2 {
			return fmt.Errorf("form row %d must have a field and a value", i)
		}
		if i == 0 && row.Cells[0].Value == "field" {
			continue
		}
		form.Add(row.Cells[0].Value, ts.expand(row.Cells[1].Value))
	}
	ts.RequestBody = []byte(form.Encode())
	return ts.do(http.MethodPost, path, "application/x-www-form-urlencoded", ts.RequestBody)
}

func (ts *TestSuite) theResponseStatusShouldBe(status int) error {
	if ts.Resp == nil {
		return fmt.Errorf("no request has been sent")
	}
	if ts.Resp.StatusCode != status {
		return fmt.Errorf("expected status %d, got %d: %s", status, ts.Resp.StatusCode, ts.RespBody)
	}
	return nil
}

func (ts *TestSuite) iShouldBeRedirectedTo(location string) error {
	if ts.Resp.StatusCode < 300 || ts.Resp.StatusCode > 399 {
		return fmt.Errorf("expected a redirect, got %d", ts.Resp.StatusCode)
	}
	if got := ts.Resp.Header.Get("Location"); got != ts.expand(location) {
		return fmt.Errorf("expected redirect to %s, got %s", ts.expand(location), got)
	}
	return nil
}

func (ts *TestSuite) iFollowTheRedirect() error {
	location := ts.Resp.Header.Get("Location")
	if location == "" {
		return fmt.Errorf("response has no Location header")
	}
	return ts.do(http.MethodGet, location, "", nil)
}

func (ts *TestSuite) theResponseShouldContain(text string) error {
	if !bytes.Contains(ts.RespBody, []byte(ts.expand(text))) {
		return fmt.Errorf("response does not contain %q", ts.expand(text))
	}
	return nil
}

func (ts *TestSuite) theResponseShouldNotContain(text string) error {
	if bytes.Contains(ts.RespBody, []byte(ts.expand(text))) {
		return fmt.Errorf("response unexpectedly contains %q", ts.expand(text))
	}
	return nil
}

func (ts *TestSuite) theResponseHeaderShouldBe(name, value string) error {
	if got := ts.Resp.Header.Get(name); got != value {
		return fmt.Errorf("expected header %s to be %q, got %q", name, value, got)
	}
	return nil
}

func (ts *TestSuite) theResponseHeaderShouldBePresent(name string) error {
	if ts.Resp.Header.Get(name) == "" {
		return fmt.Errorf("header %s is missing", name)
	}
	return nil
}

func (ts *TestSuite) theResponseFieldIsStoredAs(field, key string) error {
	var data map[string]interface{}
	if err := json.Unmarshal(ts.RespBody, &data); err != nil {
		return err
	}
	if val, ok := data[field]; ok {
		ts.Storage[key] = fmt.Sprintf("%v", val)
		return nil
	}
	return fmt.Errorf("field %s not found in response", field)
}

func (ts *TestSuite) theFirstMatchIsStoredAs(pattern, key string) error {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return fmt.Errorf("invalid pattern %q: %w", pattern, err)
	}
	return ts.StoreFirstMatch(re, key)
}

// StoreFirstMatch stores the first match of re in the response body under
// key. When re has a capture group only the first group is stored.
func (ts *TestSuite) StoreFirstMatch(re *regexp.Regexp, key string) error {
	match := re.FindSubmatch(ts.RespBody)
	if match == nil {
		return fmt.Errorf("no match for %s in response", re)
	}
	if len(match) > 1 {
		ts.Storage[key] = string(match[1])
	} else {
		ts.Storage[key] = string(match[0])
	}
	return nil
}

func (ts *TestSuite) theResponseShouldContainAnItemWith(body *godog.Table) error {
	expected, err := ts.parseDataTableToJSON(body)
	if err != nil {
		return err
	}

	var expectedMap map[string]interface{}
	if err := json.Unmarshal(expected, &expectedMap); err != nil {
		return err
	}

	var actualMap map[string]interface{}
	if err := json.Unmarshal(ts.RespBody, &actualMap); err != nil {
		return err
	}

	for key, expectedValue := range expectedMap {
		actualValue, ok := actualMap[key]
		if !ok {
			return fmt.Errorf("field %s not found in response", key)
		}
		if !assert.ObjectsAreEqual(expectedValue, fmt.Sprintf("%v", actualValue)) {
			return fmt.Errorf("field %s: expected %v, got %v", key, expectedValue, actualValue)
		}
	}
	return nil
}

// parseDataTableToJSON turns a header row and one value row into an object.
// A single-column header of the form "a.b" nests b under a.
func (ts *TestSuite) parseDataTableToJSON(body *godog.Table) ([]byte, error) {
	if len(body.Rows) < 2 {
		return nil, fmt.Errorf("table must have at least two rows")
	}
	headers := body.Rows[0].Cells
	data := make(map[string]interface{})
	for j, cell := range body.Rows[1].Cells {
		key := headers[j].Value
		if parent, child, ok := strings.Cut(key, "."); ok {
			nested, _ := data[parent].(map[string]interface{})
			if nested == nil {
				nested = make(map[string]interface{})
				data[parent] = nested
			}
			nested[child] = cell.Value
			continue
		}
		data[key] = cell.Value
	}
	return json.Marshal(data)
}

// GenericDBSeeder inserts table rows as documents built by registered
// constructors. Columns match exported field names or json tags.
type GenericDBSeeder struct {
	Constructors map[string]func() interface{}
	DB           *mongo.Database
}

func NewGenericDBSeeder(db *mongo.Database) *GenericDBSeeder {
	return &GenericDBSeeder{
		Constructors: make(map[string]func() interface{}),
		DB:           db,
	}
}

func (gds *GenericDBSeeder) Register(name string, constructor func() interface{}) {
	gds.Constructors[name] = constructor
}

func (gds *GenericDBSeeder) Seed(document string, data *godog.Table) error {
	constructor, ok := gds.Constructors[document]
	if !ok {
		return fmt.Errorf("no constructor registered for document type: %s", document)
	}

	headers := data.Rows[0].Cells
	for i := 1; i < len(data.Rows); i++ {
		docInstance := constructor()
		val := reflect.ValueOf(docInstance).Elem()

		for j, cell := range data.Rows[i].Cells {
			fieldName := headers[j].Value
			field := fieldByNameOrTag(val, fieldName)
			if !field.IsValid() || !field.CanSet() {
				return fmt.Errorf("could not set field %s for document %s", fieldName, document)
			}
			if err := setField(field, cell.Value); err != nil {
				return fmt.Errorf("field %s: %w", fieldName, err)
			}
		}

		collection := document
		if doc, ok := docInstance.(Document); ok {
			collection = doc.GetCollectionName()
		}
		if _, err := gds.DB.Collection(collection).InsertOne(context.Background(), docInstance); err != nil {
			return err
		}
	}
	return nil
}

func fieldByNameOrTag(val reflect.Value, name string) reflect.Value {
	if field := val.FieldByName(toPascalCase(name)); field.IsValid() {
		return field
	}
	typ := val.Type()
	for k := 0; k < typ.NumField(); k++ {
		if strings.Split(typ.Field(k).Tag.Get("json"), ",")[0] == name {
			return val.Field(k)
		}
	}
	return reflect.Value{}
}

var timeType = reflect.TypeOf(time.Time{})

func setField(field reflect.Value, value string) error {
	if field.Type() == timeType {
		if value == "" {
			return nil
		}
		t, err := time.Parse(time.RFC3339, value)
		if err != nil {
			return err
		}
		field.Set(reflect.ValueOf(t))
		return nil
	}

	switch field.Kind() {
	case reflect.String:
		field.SetString(value)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		if value == "" {
			field.SetInt(0)
			return nil
		}
		intVal, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return err
		}
		field.SetInt(intVal)
	case reflect.Bool:
		if value == "" {
			field.SetBool(false)
			return nil
		}
		boolVal, err := strconv.ParseBool(value)
		if err != nil {
			return err
		}
		field.SetBool(boolVal)
	default:
		return fmt.Errorf("unsupported field type %s", field.Kind())
	}
	return nil
}

func toPascalCase(s string) string {
	if len(s) == 0 {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func (tl *TestLogger) Write(p []byte) (n int, err error) {
	if tl.T != nil {
		tl.T.Logf("%s", p)
	}
	return len(p), nil
}

// RunFeatures runs the feature files under suite.Paths, or ./features.
func RunFeatures(t *testing.T, suite *TestSuite) int {
	suite.T = t
	paths := suite.Paths
	if len(paths) == 0 {
		paths = []string{"features"}
	}
	opts := godog.Options{
		Format:    "pretty",
		Output:    colors.Colored(&TestLogger{T: t}),
		Paths:     paths,
		Strict:    true,
		Randomize: 0,
	}

	return godog.TestSuite{
		Name:                 "restblog",
		TestSuiteInitializer: suite.InitializeTestSuite,
		ScenarioInitializer:  suite.InitializeScenario,
		Options:              &opts,
	}.Run()
}
