// Package site is a minimal markdown site builder that drives the external
// assets plugin through its host hooks. It discovers pages under a docs
// directory, renders them with goldmark, lets the plugin rewrite each page's
// HTML and writes the result into the output directory.
package site
