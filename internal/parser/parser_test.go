package parser

import "testing"

func TestParseAICue(t *testing.T) {
	p := Parse("Please summarize: the quick brown fox")
	if p.SkillID != "ai-analysis" {
		t.Fatalf("SkillID = %q, want ai-analysis", p.SkillID)
	}
	if p.Args["content"] != "the quick brown fox" {
		t.Fatalf("Args[content] = %q", p.Args["content"])
	}
}

func TestParsePDFKeyword(t *testing.T) {
	p := Parse("Convert to PDF: # Hello world")
	if p.SkillID != "markdown-to-pdf" {
		t.Fatalf("SkillID = %q, want markdown-to-pdf", p.SkillID)
	}
	if p.Args["content"] != "# Hello world" {
		t.Fatalf("Args[content] = %q", p.Args["content"])
	}
}

func TestParseHTMLKeyword(t *testing.T) {
	p := Parse("Convert to HTML: # Hello world")
	if p.SkillID != "markdown-to-html" {
		t.Fatalf("SkillID = %q, want markdown-to-html", p.SkillID)
	}
}

func TestParseURLGoesToScreenshot(t *testing.T) {
	p := Parse("Take a screenshot of https://example.com please")
	if p.SkillID != "screenshot" {
		t.Fatalf("SkillID = %q, want screenshot", p.SkillID)
	}
	if p.Args["url"] != "https://example.com" {
		t.Fatalf("Args[url] = %q", p.Args["url"])
	}
}

func TestParseBareURLPrefersScreenshotOverPDFKeyword(t *testing.T) {
	p := Parse("https://example.com/report.pdf")
	if p.SkillID != "screenshot" {
		t.Fatalf("SkillID = %q, want screenshot (text begins with a URL)", p.SkillID)
	}
}

func TestParseFallsBackToFreeMarkdown(t *testing.T) {
	p := Parse("# just some markdown text")
	if p.SkillID != "markdown-to-html" {
		t.Fatalf("SkillID = %q, want markdown-to-html fallback", p.SkillID)
	}
}
