package policy

// WeComID is the ID of the built-in WeCom policy.
const WeComID = "wecom"

// WeComPolicy identifies the WeCom (企业微信) desktop client.
type WeComPolicy struct {
	titles    []string
	processes []string
}

// NewWeComPolicy creates the default WeCom policy.
func NewWeComPolicy() *WeComPolicy {
	return &WeComPolicy{}
}

// NewWeComPolicyWith overrides the title substrings and process names.
// Empty slices keep the defaults.
func NewWeComPolicyWith(titles, processes []string) *WeComPolicy {
	return &WeComPolicy{titles: titles, processes: processes}
}

func (p *WeComPolicy) ID() string {
	return WeComID
}

func (p *WeComPolicy) Name() string {
	return "WeCom"
}

// ProcessNames returns the executables shipped by the different WeCom builds.
func (p *WeComPolicy) ProcessNames() []string {
	if len(p.processes) > 0 {
		return p.processes
	}
	return []string{
		"wxwork.exe",
		"wecom.exe",
		"wechatwork.exe",
	}
}

// TitleSubstrings differ between versions and UI languages.
func (p *WeComPolicy) TitleSubstrings() []string {
	if len(p.titles) > 0 {
		return p.titles
	}
	return []string{
		"企业微信",
		"wecom",
		"wxwork",
	}
}

func (p *WeComPolicy) InstallPaths() []string {
	return []string{
		`%ProgramFiles%\WXWork`,
		`%ProgramFiles(x86)%\WXWork`,
		`%LOCALAPPDATA%\WXWork`,
		`%ProgramFiles%\WeCom`,
		`%ProgramFiles(x86)%\WeCom`,
	}
}

// Ensure WeComPolicy implements AppPolicy.
var _ AppPolicy = (*WeComPolicy)(nil)
