// Package jsp implements the standard jsp:* actions as tag handlers.
package jsp
