package rank

// stopwords are dropped before hashing and keyword extraction. Spanish and
// English are the only languages the pipeline handles.
var stopwords = func() map[string]struct{} {
	words := []string{
		// English
		"a", "an", "the", "and", "or", "but", "if", "then", "else", "for", "to", "of", "in", "on", "at", "by", "with", "as", "is", "are", "was", "were", "be", "been", "being", "it", "its", "this", "that", "these", "those", "from", "up", "down", "over", "under", "again", "than", "so", "such", "into", "about", "between", "through", "during", "before", "after", "out", "off", "own", "same", "too", "very", "can", "will", "just", "should", "now", "something", "someone", "sb", "sth",
		// Spanish
		"el", "la", "los", "las", "un", "una", "unos", "unas", "lo", "al", "del", "de", "y", "e", "o", "u", "ni", "que", "en", "con", "por", "para", "sin", "sobre", "entre", "hasta", "desde", "se", "es", "son", "fue", "ser", "estar", "está", "su", "sus", "mi", "mis", "tu", "tus", "me", "te", "le", "les", "nos", "como", "más", "pero", "muy", "ya", "algo", "alguien",
	}
	m := make(map[string]struct{}, len(words))
	for _, w := range words {
		m[w] = struct{}{}
	}
	return m
}()
