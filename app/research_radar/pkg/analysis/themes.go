package analysis

import (
	"sort"
	"strings"

	"github.com/iWorld-y/research_radar/app/research_radar/pkg/model"
)

// MaxThemes 分析结果中保留的主题数量
const MaxThemes = 8

// Theme 一个命名主题及其代表短语
type Theme struct {
	Name    string
	Phrases []string
}

// Themes 固定的主题目录，顺序即得分相同时的排序
var Themes = []Theme{
	{"Large Language Models", []string{"llm", "gpt", "language model", "chatgpt", "gemini", "claude", "llama"}},
	{"Computer Vision", []string{"vision", "image", "object detection", "cnn", "visual", "diffusion"}},
	{"Reinforcement Learning", []string{"reinforcement", "rl", "reward", "policy", "agent", "drl"}},
	{"AI Safety & Alignment", []string{"safety", "alignment", "harmful", "bias", "ethics", "responsible ai"}},
	{"Multimodal AI", []string{"multimodal", "text-to-image", "image-to-text", "audio", "video generation"}},
	{"AI Infrastructure", []string{"inference", "training", "gpu", "compute", "deployment", "scalability"}},
	{"Natural Language Processing", []string{"nlp", "sentiment", "translation", "summarization", "ner"}},
	{"Generative AI", []string{"generative", "gen ai", "diffusion model", "stable diffusion", "midjourney"}},
	{"AI in Healthcare", []string{"healthcare", "medical", "clinical", "diagnosis", "drug discovery"}},
	{"Robotics & Automation", []string{"robot", "robotics", "automation", "autonomous", "drone"}},
}

// DetectThemes 按短语出现次数给每个主题打分，返回得分大于 0 的前 limit 个主题。
// 这里是子串计数，不看词边界："rl" 也会命中 "world" 里的 "rl"。
func DetectThemes(texts []string, limit int) []model.ThemeScore {
	combined := strings.ToLower(strings.Join(texts, " "))

	scores := make([]model.ThemeScore, 0, len(Themes))
	for _, theme := range Themes {
		score := 0
		for _, phrase := range theme.Phrases {
			score += strings.Count(combined, phrase)
		}
		if score > 0 {
			scores = append(scores, model.ThemeScore{Theme: theme.Name, Score: score})
		}
	}
	sort.SliceStable(scores, func(i, j int) bool {
		return scores[i].Score > scores[j].Score
	})

	if limit >= 0 && len(scores) > limit {
		scores = scores[:limit]
	}
	return scores
}
