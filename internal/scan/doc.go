// Package scan splits a JSP-style template into the callback stream consumed
// by the translator.
//
// Recognised constructs:
//
//	<%-- comment --%>           skipped
//	<%! declaration %>          CodeFragment(FragmentDeclaration)
//	<%= expression %>           CodeFragment(FragmentExpression)
//	<% scriptlet %>             CodeFragment(FragmentScriptlet)
//	<%@ page attr="v" %>        TagStart("@page"), TagAttribute..., TagEnd(true)
//	<p:name a="v"> ... </p:name> TagStart, TagAttribute..., TagEnd
//
// Everything else, including markup without a prefix, is literal text.
// Malformed input is reported through diag.Reporter and never stops the scan.
package scan
