package http

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"loanapproval/loan"
	"loanapproval/ml"
)

const testPage = `<html><body>
{{if .PredictionText}}<p id="prediction">{{.PredictionText}}</p>{{end}}
{{if .Confidence}}<p id="confidence">Confidence: {{.Confidence}}%</p>{{end}}
<input name="Gender" value="{{field .FormData "Gender"}}">
</body></html>`

func testTemplates() *Templates {
	return NewTemplates(fstest.MapFS{"home.html": {Data: []byte(testPage)}}, "home.html")
}

// fakeModel always predicts class with probability p.
type fakeModel struct {
	class int
	p     float64
	err   error
}

func (f *fakeModel) Classes() []int { return []int{0, 1} }

func (f *fakeModel) Predict([]ml.Row) ([]int, error) {
	if f.err != nil {
		return nil, f.err
	}
	return []int{f.class}, nil
}

func (f *fakeModel) PredictProba(rows []ml.Row) ([][]float64, error) {
	if f.err != nil {
		return nil, f.err
	}
	proba := []float64{1 - f.p, 1 - f.p}
	proba[f.class] = f.p
	return [][]float64{proba}, nil
}

func newTestMux(t *testing.T, model ml.Model, templates Renderer) *http.ServeMux {
	t.Helper()
	log := zaptest.NewLogger(t)
	mux := http.NewServeMux()
	RegisterHandlers(mux, NewHandler(loan.NewService(model, log), templates, log))
	return mux
}

func validForm() url.Values {
	return url.Values{
		"Gender":            {"Male"},
		"Married":           {"Yes"},
		"Dependents":        {"1"},
		"Education":         {"Graduate"},
		"Self_Employed":     {"No"},
		"ApplicantIncome":   {"4583"},
		"CoapplicantIncome": {"1508"},
		"LoanAmount":        {"128"},
		"Loan_Amount_Term":  {"360"},
		"Credit_History":    {"1"},
		"Property_Area":     {"Rural"},
	}
}

func postForm(mux http.Handler, form url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/predict", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)
	return w
}

func postJSON(mux http.Handler, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/predict_api", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)
	return w
}

func TestHandlePredictAPIApproved(t *testing.T) {
	mux := newTestMux(t, &fakeModel{class: 1, p: 0.87}, testTemplates())

	w := postJSON(mux, `{"Gender":"Male","ApplicantIncome":5849,"Credit_History":1.0}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

	var payload map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &payload))
	assert.Equal(t, "success", payload["status"])
	assert.Equal(t, "Approved", payload["loan_status"])
	assert.Equal(t, "87.0%", payload["confidence"])

	input, ok := payload["input_data"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "Male", input["Gender"])
	assert.Equal(t, 5849.0, input["ApplicantIncome"])
}

func TestHandlePredictAPITrailingWhitespace(t *testing.T) {
	mux := newTestMux(t, &fakeModel{class: 1, p: 0.87}, testTemplates())

	w := postJSON(mux, "{\"Gender\":\"Male\"}\n  \n")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestHandlePredictAPIRejected(t *testing.T) {
	mux := newTestMux(t, &fakeModel{class: 0, p: 0.65}, testTemplates())

	w := postJSON(mux, `{"Gender":"Female"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"loan_status":"Rejected"`)
	assert.Contains(t, w.Body.String(), `"confidence":"65.0%"`)
}

func TestHandlePredictAPIErrors(t *testing.T) {
	cases := map[string]struct {
		model ml.Model
		body  string
	}{
		"malformed json": {&fakeModel{class: 1, p: 0.9}, `{"Gender": "Male",`},
		"not an object":  {&fakeModel{class: 1, p: 0.9}, `["Male"]`},
		"trailing data":  {&fakeModel{class: 1, p: 0.9}, `{"Gender":"Male"} this is not json`},
		"two objects":    {&fakeModel{class: 1, p: 0.9}, `{"Gender":"Male"}{"Gender":"Female"}`},
		"model failure":  {&fakeModel{err: errors.New("columns are missing: Gender")}, `{}`},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			w := postJSON(newTestMux(t, tc.model, testTemplates()), tc.body)
			require.Equal(t, http.StatusInternalServerError, w.Code)

			var payload map[string]string
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &payload))
			assert.Equal(t, "error", payload["status"])
			assert.NotEmpty(t, payload["message"])
		})
	}
}

func TestHandlePredictFormApproved(t *testing.T) {
	mux := newTestMux(t, &fakeModel{class: 1, p: 0.87}, testTemplates())

	w := postForm(mux, validForm())
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, "✅ Loan Approved")
	assert.Contains(t, body, "Confidence: 87.0%")
	assert.Contains(t, body, `value="Male"`)
}

func TestHandlePredictFormRejected(t *testing.T) {
	mux := newTestMux(t, &fakeModel{class: 0, p: 0.65}, testTemplates())

	w := postForm(mux, validForm())
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "❌ Loan Rejected")
	assert.Contains(t, w.Body.String(), "Confidence: 65.0%")
}

func TestHandlePredictFormMissingField(t *testing.T) {
	mux := newTestMux(t, &fakeModel{class: 1, p: 0.87}, testTemplates())
	form := validForm()
	form.Del("Gender")

	w := postForm(mux, form)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Missing input: &#39;Gender&#39;")
	assert.NotContains(t, w.Body.String(), "Confidence")
}

func TestHandlePredictFormInvalidNumber(t *testing.T) {
	mux := newTestMux(t, &fakeModel{class: 1, p: 0.87}, testTemplates())
	form := validForm()
	form.Set("ApplicantIncome", "abc")

	w := postForm(mux, form)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Invalid input: could not convert string to float: &#39;abc&#39;")
}

func TestHandlePredictFormModelFailure(t *testing.T) {
	mux := newTestMux(t, &fakeModel{err: errors.New("boom")}, testTemplates())

	w := postForm(mux, validForm())
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Unexpected error: classification failed: boom")
}

type failingRenderer struct{}

func (failingRenderer) Render(_ io.Writer, _ PageData) error {
	return errors.New("template: pattern matches no files: `home.html`")
}

func TestHandlePredictFormTemplateFailure(t *testing.T) {
	mux := newTestMux(t, &fakeModel{class: 1, p: 0.87}, failingRenderer{})
	w := postForm(mux, validForm())
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestPredictWithRealPipeline(t *testing.T) {
	pre, err := ml.NewDataPreprocessor(
		[]ml.NumericColumn{{Name: "Credit_History"}, {Name: "ApplicantIncome", Mean: 5000, Scale: 5000}},
		[]ml.CategoricalColumn{{Name: "Married", Categories: []string{"No", "Yes"}}},
	)
	require.NoError(t, err)
	lr, err := ml.NewLogisticRegression([]float64{2.5, 0.3, -0.2, 0.2}, -1, pre.Width(), 2)
	require.NoError(t, err)
	pipeline, err := ml.NewPipeline([]int{0, 1}, pre, lr)
	require.NoError(t, err)

	mux := newTestMux(t, pipeline, testTemplates())

	w := postJSON(mux, `{"Credit_History": "1", "ApplicantIncome": 5000, "Married": "Yes", "Loan_ID": "LP001"}`)
	require.Equal(t, http.StatusOK, w.Code)
	var payload map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &payload))
	assert.Equal(t, "Approved", payload["loan_status"])
	assert.True(t, strings.HasSuffix(payload["confidence"].(string), "%"))

	w = postJSON(mux, `{"Credit_History": "abc", "ApplicantIncome": 5000, "Married": "Yes"}`)
	assert.Equal(t, http.StatusInternalServerError, w.Code)

	w = postForm(mux, validForm())
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Loan Approved")
}
