package main

import (
	"bytes"
	"context"
	"flag"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"
	"unicode/utf8"

	pdf "github.com/dslipak/pdf"
	"github.com/josinaldojr/book-rag/internal/config"
	"github.com/josinaldojr/book-rag/internal/llm"
	"github.com/josinaldojr/book-rag/internal/logger"
	"github.com/josinaldojr/book-rag/internal/rag"
	"github.com/josinaldojr/book-rag/internal/vectorstore"
	"go.uber.org/zap"
	"golang.org/x/net/html"
)

const (
	defaultChunkSize = 2000
	fetchTimeout     = 30 * time.Second
)

// ingester is the part of rag.Service the importer drives.
type ingester interface {
	EnsureCollection(ctx context.Context, vectorSize int) error
	Ingest(ctx context.Context, chunks []string) (int, error)
}

type importer struct {
	svc       ingester
	chunkSize int
	batchSize int
	client    *http.Client
	log       *zap.Logger
}

func main() {
	fromFiles := flag.Bool("from-files", false, "import local files (.md/.mdx/.txt/.html/.pdf)")
	pathFlag := flag.String("path", "", "base directory for local files")
	fromURL := flag.Bool("from-url", false, "import by crawling over HTTP")
	baseURLFlag := flag.String("base-url", "", "base URL to crawl (same host only)")
	maxPagesFlag := flag.Int("max-pages", 50, "page limit for the HTTP crawl")
	chunkSizeFlag := flag.Int("chunk-size", defaultChunkSize, "max bytes per chunk, cut on rune boundaries")
	batchSizeFlag := flag.Int("batch-size", 32, "chunks per ingest call")
	flag.Parse()

	cfg := config.Load()
	log := logger.New(cfg.LogLevel, cfg.LogFile)
	defer func() { _ = log.Sync() }()

	if !*fromFiles && !*fromURL {
		log.Fatal("use at least one mode: --from-files or --from-url")
	}
	if *chunkSizeFlag <= 0 {
		log.Fatal("--chunk-size must be positive", zap.Int("chunk_size", *chunkSizeFlag))
	}
	if err := cfg.Validate(); err != nil {
		log.Fatal("invalid configuration", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	geminiClient, err := llm.NewGeminiClient(ctx, cfg.GeminiAPIKey, cfg.EmbeddingModel, cfg.EmbeddingDim)
	if err != nil {
		log.Fatal("failed to init Gemini client", zap.Error(err))
	}

	store, closeStore, err := vectorstore.Open(ctx, cfg)
	if err != nil {
		log.Fatal("failed to open vector store", zap.Error(err))
	}
	defer closeStore()

	svc := rag.NewService(store, geminiClient, geminiClient, rag.Settings{
		ChatModel:    llm.NormalizeModelName(cfg.ChatModel),
		EmbeddingDim: cfg.EmbeddingDim,
	}, log)

	if err := svc.EnsureCollection(ctx, cfg.EmbeddingDim); err != nil {
		log.Fatal("failed to ensure collection", zap.Error(err))
	}

	imp := &importer{
		svc:       svc,
		chunkSize: *chunkSizeFlag,
		batchSize: *batchSizeFlag,
		client:    &http.Client{Timeout: fetchTimeout},
		log:       log,
	}

	if *fromFiles {
		if *pathFlag == "" {
			log.Fatal("--path is required with --from-files")
		}
		if err := imp.importFromFiles(ctx, *pathFlag); err != nil {
			log.Fatal("file import failed", zap.Error(err))
		}
	}

	if *fromURL {
		if *baseURLFlag == "" {
			log.Fatal("--base-url is required with --from-url")
		}
		if err := imp.importFromHTTP(ctx, *baseURLFlag, *maxPagesFlag); err != nil {
			log.Fatal("HTTP import failed", zap.Error(err))
		}
	}

	log.Info("import finished")
}

func (imp *importer) importFromFiles(ctx context.Context, rootPath string) error {
	imp.log.Info("importing local files", zap.String("path", rootPath))

	return filepath.WalkDir(rootPath, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if !isTextFile(path) {
			return nil
		}

		content, err := readDocument(path)
		if err != nil {
			return err
		}
		if content == "" {
			return nil
		}

		return imp.chunkAndStore(ctx, path, content)
	})
}

func readDocument(path string) (string, error) {
	lpath := strings.ToLower(path)
	var content string

	switch {
	case strings.HasSuffix(lpath, ".pdf"):
		text, err := extractTextFromPDF(path)
		if err != nil {
			return "", fmt.Errorf("read pdf %s: %w", path, err)
		}
		content = text

	case strings.HasSuffix(lpath, ".html") || strings.HasSuffix(lpath, ".htm"):
		data, err := os.ReadFile(path)
		if err != nil {
			return "", fmt.Errorf("read %s: %w", path, err)
		}
		content = extractMainText(string(data))

	default:
		data, err := os.ReadFile(path)
		if err != nil {
			return "", fmt.Errorf("read %s: %w", path, err)
		}
		content = stripFrontMatter(string(data))
	}

	return sanitizeUTF8(strings.TrimSpace(content)), nil
}

// stripFrontMatter removes a leading "---" delimited YAML block, as found in
// Docusaurus markdown pages.
func stripFrontMatter(s string) string {
	trimmed := strings.TrimLeft(s, "\ufeff \t\r\n")
	if !strings.HasPrefix(trimmed, "---") {
		return s
	}
	rest := trimmed[3:]
	end := strings.Index(rest, "\n---")
	if end < 0 {
		return s
	}
	rest = rest[end+4:]
	return strings.TrimLeft(rest, "\r\n")
}

func (imp *importer) importFromHTTP(ctx context.Context, baseURL string, maxPages int) error {
	imp.log.Info("crawling", zap.String("base", baseURL), zap.Int("max_pages", maxPages))

	base, err := url.Parse(baseURL)
	if err != nil {
		return fmt.Errorf("invalid base-url: %w", err)
	}

	visited := make(map[string]bool)
	queue := []string{base.String()}
	pages := 0

	for len(queue) > 0 && pages < maxPages {
		if err := ctx.Err(); err != nil {
			return err
		}

		current := queue[0]
		queue = queue[1:]

		if visited[current] {
			continue
		}
		visited[current] = true
		pages++

		imp.log.Debug("fetching", zap.String("url", current))
		resp, err := imp.fetch(ctx, current)
		if err != nil {
			imp.log.Warn("GET failed", zap.String("url", current), zap.Error(err))
			continue
		}
		if resp.StatusCode != http.StatusOK {
			imp.log.Warn("unexpected status", zap.String("url", current), zap.Int("status", resp.StatusCode))
			resp.Body.Close()
			continue
		}

		bodyBytes, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			imp.log.Warn("read body failed", zap.String("url", current), zap.Error(err))
			continue
		}

		htmlStr := string(bodyBytes)
		text := sanitizeUTF8(strings.TrimSpace(extractMainText(htmlStr)))
		if text != "" {
			if err := imp.chunkAndStore(ctx, current, text); err != nil {
				imp.log.Warn("storing chunks failed", zap.String("url", current), zap.Error(err))
			}
		}

		for _, link := range extractLinks(htmlStr, base) {
			if !visited[link] {
				queue = append(queue, link)
			}
		}
	}

	return nil
}

func (imp *importer) fetch(ctx context.Context, pageURL string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, err
	}
	client := imp.client
	if client == nil {
		client = &http.Client{Timeout: fetchTimeout}
	}
	return client.Do(req)
}

func isTextFile(path string) bool {
	l := strings.ToLower(path)
	return strings.HasSuffix(l, ".md") ||
		strings.HasSuffix(l, ".mdx") ||
		strings.HasSuffix(l, ".txt") ||
		strings.HasSuffix(l, ".html") ||
		strings.HasSuffix(l, ".htm") ||
		strings.HasSuffix(l, ".pdf")
}

func extractMainText(htmlStr string) string {
	doc, err := html.Parse(strings.NewReader(htmlStr))
	if err != nil {
		return ""
	}

	var b strings.Builder
	var walk func(*html.Node, bool)

	walk = func(n *html.Node, skip bool) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "script", "style", "noscript":
				skip = true
			}
		}

		if n.Type == html.TextNode && !skip {
			t := strings.TrimSpace(n.Data)
			if t != "" {
				b.WriteString(t)
				b.WriteString("\n")
			}
		}

		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c, skip)
		}
	}
	walk(doc, false)

	lines := strings.Split(b.String(), "\n")
	var filtered []string
	for _, l := range lines {
		l = strings.TrimSpace(l)
		if l != "" && len(l) > 1 {
			filtered = append(filtered, l)
		}
	}
	return strings.Join(filtered, "\n")
}

func extractLinks(htmlStr string, base *url.URL) []string {
	doc, err := html.Parse(strings.NewReader(htmlStr))
	if err != nil {
		return nil
	}
	var links []string

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "a" {
			for _, a := range n.Attr {
				if a.Key == "href" {
					h := strings.TrimSpace(a.Val)
					if h == "" || strings.HasPrefix(h, "#") {
						continue
					}
					u, err := url.Parse(h)
					if err != nil {
						continue
					}
					u = base.ResolveReference(u)

					if u.Host != base.Host {
						continue
					}

					if strings.HasSuffix(u.Path, ".css") ||
						strings.HasSuffix(u.Path, ".js") ||
						strings.HasSuffix(u.Path, ".png") ||
						strings.HasSuffix(u.Path, ".jpg") ||
						strings.HasSuffix(u.Path, ".svg") {
						continue
					}

					link := u.Scheme + "://" + u.Host + u.Path
					links = append(links, link)
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	seen := make(map[string]bool)
	var out []string
	for _, l := range links {
		if !seen[l] {
			seen[l] = true
			out = append(out, l)
		}
	}
	return out
}

func (imp *importer) chunkAndStore(ctx context.Context, source, content string) error {
	chunks := splitIntoChunks(content, imp.chunkSize)
	if len(chunks) == 0 {
		return nil
	}

	batch := imp.batchSize
	if batch <= 0 {
		batch = len(chunks)
	}

	total := 0
	for start := 0; start < len(chunks); start += batch {
		end := start + batch
		if end > len(chunks) {
			end = len(chunks)
		}
		n, err := imp.svc.Ingest(ctx, chunks[start:end])
		if err != nil {
			return fmt.Errorf("ingest %s: %w", source, err)
		}
		total += n
	}

	imp.log.Info("chunks imported", zap.String("source", source), zap.Int("chunks", total))
	return nil
}

func splitIntoChunks(content string, maxLen int) []string {
	if maxLen <= 0 {
		maxLen = defaultChunkSize
	}
	content = strings.TrimSpace(content)
	content = sanitizeUTF8(content)
	if content == "" {
		return nil
	}
	if len(content) <= maxLen {
		return []string{content}
	}

	var chunks []string
	var buf strings.Builder

	flush := func() {
		if buf.Len() == 0 {
			return
		}
		chunk := strings.TrimSpace(buf.String())
		chunk = sanitizeUTF8(chunk)
		if chunk != "" {
			chunks = append(chunks, chunk)
		}
		buf.Reset()
	}

	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		for len(line) > maxLen {
			cut := runeCut(line, maxLen)
			part := line[:cut]
			line = line[cut:]

			if buf.Len() > 0 {
				flush()
			}
			buf.WriteString(part)
			flush()
		}

		if buf.Len()+len(line)+1 > maxLen {
			flush()
		}

		buf.WriteString(line)
		buf.WriteRune('\n')
	}

	flush()
	return chunks
}

// runeCut returns the largest cut point <= n that does not split a rune.
// A rune wider than n is kept whole.
func runeCut(s string, n int) int {
	if n >= len(s) {
		return len(s)
	}
	i := n
	for i > 0 && !utf8.RuneStart(s[i]) {
		i--
	}
	if i == 0 {
		_, size := utf8.DecodeRuneInString(s)
		return size
	}
	return i
}

func extractTextFromPDF(path string) (string, error) {
	r, err := pdf.Open(path)
	if err != nil {
		return "", err
	}

	reader, err := r.GetPlainText()
	if err != nil {
		return "", err
	}

	buf := bytes.NewBuffer(nil)
	if _, err := buf.ReadFrom(reader); err != nil {
		return "", err
	}

	text := strings.TrimSpace(buf.String())
	text = sanitizeUTF8(text)
	return text, nil
}

// sanitizeUTF8 drops invalid bytes; Postgres rejects them (SQLSTATE 22021).
func sanitizeUTF8(s string) string {
	if s == "" {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	for len(s) > 0 {
		r, size := utf8.DecodeRuneInString(s)
		if r == utf8.RuneError && size == 1 {
			s = s[1:]
			continue
		}
		b.WriteRune(r)
		s = s[size:]
	}
	return b.String()
}
