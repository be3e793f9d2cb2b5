package analysis

import (
	"regexp"
	"strings"
)

// letterRun 匹配最长的连续字母串，数字和标点都视为分隔符
var letterRun = regexp.MustCompile(`\p{L}+`)

// asciiWord 只保留完全由 a-z 组成且长度不少于 3 的字母串，含非 ASCII 字母的词整体丢弃
var asciiWord = regexp.MustCompile(`^[a-z]{3,}$`)

// stopWords 常见英文虚词以及论文/新闻里信息量很低的填充词
var stopWords = map[string]struct{}{}

func init() {
	for _, w := range strings.Fields(`
		the a an and or but in on at to for
		of with by from is was are were be been
		has have had do does did will would could
		should may might shall can not no nor so
		yet both either neither each few more most
		other some such than too very just that this
		these those it its we our they their new
		also using based show shows paper study research
		results method methods approach proposed model models
		data use used two first second one three`) {
		stopWords[w] = struct{}{}
	}
}

// IsStopWord 判断 token 是否在停用词表中
func IsStopWord(token string) bool {
	_, ok := stopWords[token]
	return ok
}

// Tokenize 把原始文本转换为归一化的 token 序列
func Tokenize(text string) []string {
	words := letterRun.FindAllString(strings.ToLower(text), -1)
	tokens := make([]string, 0, len(words))
	for _, w := range words {
		if !asciiWord.MatchString(w) || IsStopWord(w) {
			continue
		}
		tokens = append(tokens, w)
	}
	return tokens
}
