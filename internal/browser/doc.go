// Package browser drives headless Chrome through chromedp and exposes each
// tab as a stacks.Executor together with the network log of its last
// navigation.
package browser
