// Package catalog scrapes the academic-calendar course listing and
// turns it into the course-code list that drives the pipeline.
package catalog

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"mactimetable-backend/lib/browser"
	"mactimetable-backend/lib/telemetry"

	cloudflarebp "github.com/DaRealFreak/cloudflare-bp-go"
	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = telemetry.Tracer("mactimetable.services.timetable.catalog")

const defaultCatalogURL = "https://academiccalendars.romcmaster.ca/content.php?catoid=58&navoid=12627"

type Client struct {
	http *resty.Client
	base string
}

func NewClient(baseURL string) *Client {
	if baseURL == "" {
		baseURL = defaultCatalogURL
	}

	client := resty.New()
	client.GetClient().Transport = cloudflarebp.AddCloudFlareByPass(client.GetClient().Transport)
	client.SetHeader("user-agent", browser.DefaultUserAgent)
	client.SetTimeout(time.Second * 30)

	telemetry.InstrumentResty(client, "mactimetable.services.timetable.catalog.http")

	return &Client{http: client, base: baseURL}
}

func (c *Client) fetchDoc(ctx context.Context, pageNo int) (*goquery.Document, error) {
	link := c.base
	if pageNo > 1 {
		link = fmt.Sprintf("%s&filter%%5Bcpage%%5D=%d", c.base, pageNo)
	}

	res, err := c.http.R().
		SetContext(ctx).
		Get(link)
	if err != nil {
		return nil, err
	}
	return goquery.NewDocumentFromReader(bytes.NewBuffer(res.Body()))
}

// FetchCourseNames walks every listing page and collects the raw
// course-name rows.
func (c *Client) FetchCourseNames(ctx context.Context) ([]string, error) {
	ctx, span := tracer.Start(ctx, "FetchCourseNames")
	defer span.End()

	first, err := c.fetchDoc(ctx, 1)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to fetch first listing page")
		return nil, err
	}

	last := lastPage(first)
	span.SetAttributes(attribute.Int("pages", last))

	names := courseNames(first)
	for pageNo := 2; pageNo <= last; pageNo++ {
		doc, err := c.fetchDoc(ctx, pageNo)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "failed to fetch listing page")
			return nil, err
		}
		names = append(names, courseNames(doc)...)
	}
	return names, nil
}

// lastPage reads the highest pagination index advertised by the
// listing, defaulting to a single page when none is found.
func lastPage(doc *goquery.Document) int {
	max := 1
	doc.Find(`[aria-label^="Page "]`).Each(func(_ int, s *goquery.Selection) {
		aria := strings.TrimSpace(s.AttrOr("aria-label", ""))
		parts := strings.Fields(aria)
		if len(parts) != 2 {
			return
		}
		n, err := strconv.Atoi(parts[1])
		if err == nil && n > max {
			max = n
		}
	})
	return max
}

// the listing markup is ancient and inconsistent across pages, the
// name anchor shows up under a few different cell classes
var nameSelectors = []string{
	"td.width a",
	"td.width_85 a",
}

func courseNames(doc *goquery.Document) []string {
	var names []string
	seen := map[string]bool{}
	for _, sel := range nameSelectors {
		doc.Find(sel).Each(func(_ int, s *goquery.Selection) {
			name := strings.TrimSpace(s.Text())
			if name == "" || seen[name] {
				return
			}
			seen[name] = true
			names = append(names, name)
		})
	}
	return names
}

// matches "MATH 1ZB3", "COMPENG 2AA3", "CIVENG 3G03", subject of 2+
// uppercase letters (& allowed for joint subjects) followed by a
// digit-letter-letter-digit catalog code
var codeLine = regexp.MustCompile(`^\s*([A-Z&]{2,})\s+(\d[A-Z0-9]{2}\d)\b`)

// ExtractCodes pulls unique "SUBJECT NUMBER" codes out of raw course
// names, uppercase-normalized and sorted.
func ExtractCodes(names []string) []string {
	set := map[string]bool{}
	for _, name := range names {
		text := strings.NewReplacer("–", "-", "—", "-", "•", "").Replace(name)
		text = strings.ToUpper(strings.TrimSpace(text))

		m := codeLine.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		set[fmt.Sprintf("%s %s", m[1], m[2])] = true
	}

	codes := make([]string, 0, len(set))
	for code := range set {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

// WriteCourseList writes one code per line, the format ReadCourseList
// consumes.
func WriteCourseList(path string, codes []string) error {
	var buf bytes.Buffer
	for _, code := range codes {
		buf.WriteString(code)
		buf.WriteByte('\n')
	}
	return os.WriteFile(path, buf.Bytes(), 0644)
}
