package fuzztests

import (
	"io/fs"
	"os"
	"path/filepath"
	"testing"
)

const maxSeedBytes = 64 << 10

var inlineSeeds = []string{
	"",
	"hello\n",
	"<html>\n<body>\n</body>\n</html>",
	"<% int x = 1; %>\n<%= x %>\n<%! int y; %>",
	"<%@ page import=\"java.util.*\" %>\n",
	"<jsp:useBean id=\"cart\" class=\"Cart\"/>\nTotal: <jsp:getProperty name=\"cart\" property=\"total\"/>\n",
	"<jsp:setProperty name='cart' property='total' value=\"3\"/>",
	"<jsp:include page=\"a.jsp\"></jsp:include>",
	"<%-- comment --%>text",
	"<% unterminated",
	"<jsp:useBean id=\"x\"",
	"a \"quoted\" \\ line\r\nnext\rlast",
	"<x:unknown a=b/>",
	"</jsp:useBean>",
	"\xff\xfe<%= \"日本\" %>",
}

func addCorpusSeeds(f *testing.F) {
	for _, s := range inlineSeeds {
		f.Add([]byte(s))
	}
	addTestdataSeeds(f)
}

func addTestdataSeeds(f *testing.F) {
	root := filepath.Join("..", "..", "testdata")
	if _, err := os.Stat(root); err != nil {
		return
	}
	_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil || d.IsDir() {
			return nil
		}
		switch filepath.Ext(path) {
		case ".jsp", ".jspf", ".jspx":
		default:
			return nil
		}
		// #nosec G304 -- path comes from repository testdata walk
		src, err := os.ReadFile(path)
		if err != nil {
			return nil
		}
		f.Add(clampSeed(src))
		return nil
	})
}

func clampSeed(src []byte) []byte {
	if len(src) <= maxSeedBytes {
		return src
	}
	return src[:maxSeedBytes]
}
