// Package replacer implements the text pipeline behind the "!s search/replacement"
// command: typography normalization, reversible masking of URLs, mentions and angle
// brackets, markdown stripping, policy checks and the case-insensitive substitution
// applied to the first matching chat message.
package replacer
