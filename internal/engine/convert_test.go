package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConvertToMarkdownRendersBody(t *testing.T) {
	out, err := ConvertToMarkdown("<h1>Title</h1><p>Hello <strong>world</strong></p>", "http://example.com", 0)
	require.Nil(t, err)
	assert.Contains(t, out.Markdown, "Title")
	assert.Contains(t, out.Markdown, "Hello")
}

func TestConvertExtractsHyperlinksImagesAndEmail(t *testing.T) {
	html := `<p><a href="/about">About</a> <a href="mailto:a@b.com">Mail</a> <img src="/pic.png"></p>`
	out, err := ConvertToMarkdown(html, "http://example.com", 0)
	require.Nil(t, err)
	require.Len(t, out.Links, 3)

	assert.Equal(t, "http://example.com/about", out.Links[0].URL)
	assert.Equal(t, LinkHyperlink, out.Links[0].Kind)

	assert.Equal(t, "mailto:a@b.com", out.Links[1].URL)
	assert.Equal(t, LinkEmail, out.Links[1].Kind)

	assert.Equal(t, "http://example.com/pic.png", out.Links[2].URL)
	assert.Equal(t, LinkImage, out.Links[2].Kind)
}

func TestConvertSkipsFragmentQueryAndJavascriptLinks(t *testing.T) {
	html := `<p><a href="#top">Top</a><a href="?x=1">Q</a><a href="javascript:void(0)">JS</a></p>`
	out, err := ConvertToMarkdown(html, "http://example.com", 0)
	require.Nil(t, err)
	assert.Empty(t, out.Links)
}

func TestConvertDropsLinksInsideScriptStyleNoscriptIframeTemplate(t *testing.T) {
	html := `<p><a href="/kept">Kept</a></p>` +
		`<script>var x = '<a href="/script">S</a>';</script>` +
		`<style>a[href="/style"]{color:red}</style>` +
		`<noscript><a href="/noscript">N</a></noscript>` +
		`<iframe src="/iframe"></iframe>` +
		`<template><a href="/template">T</a></template>`
	out, err := ConvertToMarkdown(html, "http://example.com", 0)
	require.Nil(t, err)
	require.Len(t, out.Links, 1)
	assert.Equal(t, "http://example.com/kept", out.Links[0].URL)
}

func TestConvertCapsLinksAtMaxLinks(t *testing.T) {
	html := `<p><a href="/a">a</a><a href="/b">b</a><a href="/c">c</a></p>`
	out, err := ConvertToMarkdown(html, "http://example.com", 2)
	require.Nil(t, err)
	assert.Len(t, out.Links, 2)
}
