// pkg/genclient/voices.go

package genclient

import "strings"

type Voice struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Category string `json:"category"`
	Language string `json:"language"`
}

var voices = []Voice{
	{ID: "zh_female_wanqudashu_moon_bigtts", Name: "湾区大叔", Category: "Dialect", Language: "zh"},
	{ID: "zh_female_daimengchuanmei_moon_bigtts", Name: "呆萌川妹", Category: "Dialect", Language: "zh"},
	{ID: "zh_male_guozhoudege_moon_bigtts", Name: "广州德哥", Category: "Dialect", Language: "zh"},
	{ID: "zh_male_beijingxiaoye_moon_bigtts", Name: "北京小爷", Category: "Dialect", Language: "zh"},
	{ID: "zh_male_haoyuxiaoge_moon_bigtts", Name: "浩宇小哥", Category: "Dialect", Language: "zh"},
	{ID: "zh_male_guangxiyuanzhou_moon_bigtts", Name: "广西远舟", Category: "Dialect", Language: "zh"},
	{ID: "zh_female_meituojieer_moon_bigtts", Name: "妹坨洁儿", Category: "Dialect", Language: "zh"},
	{ID: "zh_male_yuzhouzixuan_moon_bigtts", Name: "豫州子轩", Category: "Dialect", Language: "zh"},
	{ID: "zh_female_wanwanxiaohe_moon_bigtts", Name: "湾湾小何", Category: "Dialect", Language: "zh"},
	{ID: "zh_male_jingqiangkanye_moon_bigtts", Name: "京腔侃爷/Harmony", Category: "Dialect", Language: "mix"},
	{ID: "zh_male_shaonianzixin_moon_bigtts", Name: "少年梓辛/Brayan", Category: "General", Language: "mix"},
	{ID: "zh_female_linjianvhai_moon_bigtts", Name: "邻家女孩", Category: "General", Language: "zh"},
	{ID: "zh_male_yuanboxiaoshu_moon_bigtts", Name: "渊博小叔", Category: "General", Language: "zh"},
	{ID: "zh_male_yangguangqingnian_moon_bigtts", Name: "阳光青年", Category: "General", Language: "zh"},
	{ID: "zh_female_shuangkuaisisi_moon_bigtts", Name: "爽快思思/Skye", Category: "General", Language: "mix"},
	{ID: "zh_male_wennuanahu_moon_bigtts", Name: "温暖阿虎/Alvin", Category: "General", Language: "mix"},
	{ID: "zh_female_tianmeixiaoyuan_moon_bigtts", Name: "甜美小源", Category: "General", Language: "zh"},
	{ID: "zh_female_qingchezizi_moon_bigtts", Name: "清澈梓梓", Category: "General", Language: "zh"},
	{ID: "zh_male_jieshuoxiaoming_moon_bigtts", Name: "解说小明", Category: "General", Language: "zh"},
	{ID: "zh_female_kailangjiejie_moon_bigtts", Name: "开朗姐姐", Category: "General", Language: "zh"},
	{ID: "zh_male_linjiananhai_moon_bigtts", Name: "邻家男孩", Category: "General", Language: "zh"},
	{ID: "zh_female_tianmeiyueyue_moon_bigtts", Name: "甜美悦悦", Category: "General", Language: "zh"},
	{ID: "zh_female_xinlingjitang_moon_bigtts", Name: "心灵鸡汤", Category: "General", Language: "zh"},
	{ID: "zh_female_cancan_mars_bigtts", Name: "灿灿", Category: "General", Language: "zh"},
	{ID: "zh_female_zhixingnvsheng_mars_bigtts", Name: "知性女声", Category: "General", Language: "zh"},
	{ID: "zh_female_qingxinnvsheng_mars_bigtts", Name: "清新女声", Category: "General", Language: "mix"},
	{ID: "zh_female_meilinvyou_moon_bigtts", Name: "魅力女友", Category: "Roleplay", Language: "zh"},
	{ID: "zh_male_shenyeboke_moon_bigtts", Name: "深夜播客", Category: "Roleplay", Language: "zh"},
	{ID: "zh_female_sajiaonvyou_moon_bigtts", Name: "柔美女友", Category: "Roleplay", Language: "zh"},
	{ID: "zh_female_yuanqinvyou_moon_bigtts", Name: "撒娇学妹", Category: "Roleplay", Language: "zh"},
	{ID: "zh_female_gaolengyujie_moon_bigtts", Name: "高冷御姐", Category: "Roleplay", Language: "zh"},
	{ID: "zh_male_aojiaobazong_moon_bigtts", Name: "傲娇霸总", Category: "Roleplay", Language: "zh"},
	{ID: "ICL_zh_female_bingruoshaonv_tob", Name: "病弱少女", Category: "Roleplay", Language: "zh"},
	{ID: "ICL_zh_female_huoponvhai_tob", Name: "活泼女孩", Category: "Roleplay", Language: "zh"},
	{ID: "ICL_zh_female_heainainai_tob", Name: "和蔼奶奶", Category: "Roleplay", Language: "zh"},
	{ID: "ICL_zh_female_linjuayi_tob", Name: "邻居阿姨", Category: "Roleplay", Language: "zh"},
	{ID: "zh_female_wenrouxiaoya_moon_bigtts", Name: "温柔小雅", Category: "Roleplay", Language: "zh"},
	{ID: "zh_male_dongfanghaoran_moon_bigtts", Name: "东方浩然", Category: "Roleplay", Language: "zh"},
	{ID: "zh_male_tiancaitongsheng_mars_bigtts", Name: "天才童声", Category: "Roleplay", Language: "zh"},
	{ID: "zh_male_naiqimengwa_mars_bigtts", Name: "奶气萌娃", Category: "Roleplay", Language: "zh"},
	{ID: "zh_male_sunwukong_mars_bigtts", Name: "猴哥", Category: "Roleplay", Language: "zh"},
	{ID: "zh_male_xionger_mars_bigtts", Name: "熊二", Category: "Roleplay", Language: "zh"},
	{ID: "zh_female_peiqi_mars_bigtts", Name: "佩奇猪", Category: "Roleplay", Language: "zh"},
	{ID: "zh_female_popo_mars_bigtts", Name: "婆婆", Category: "Roleplay", Language: "zh"},
	{ID: "multi_female_shuangkuaisisi_moon_bigtts", Name: "はるこ/Esmeralda", Category: "Multilingual", Language: "multi"},
	{ID: "multi_male_jingqiangkanye_moon_bigtts", Name: "かずね/Javier or Álvaro", Category: "Multilingual", Language: "multi"},
	{ID: "multi_female_gaolengyujie_moon_bigtts", Name: "あけみ", Category: "Multilingual", Language: "multi"},
	{ID: "multi_male_wanqudashu_moon_bigtts", Name: "ひろし/Roberto", Category: "Multilingual", Language: "multi"},
	{ID: "en_female_anna_mars_bigtts", Name: "Anna", Category: "English", Language: "en"},
	{ID: "zh_male_changtianyi_mars_bigtts", Name: "悬疑解说", Category: "Narration", Language: "zh"},
}

// Voices returns a copy of the speech voice catalog.
func Voices() []Voice {
	return append([]Voice(nil), voices...)
}

// ResolveVoiceID maps a voice id or display name to its catalog id. Models
// often answer with the display name; unknown values come back unchanged.
func ResolveVoiceID(raw string) string {
	raw = strings.TrimSpace(raw)
	for _, v := range voices {
		if v.ID == raw || v.Name == raw {
			return v.ID
		}
	}
	return raw
}

// VoiceName is the display name for id, or id itself when it is not in the catalog.
func VoiceName(id string) string {
	for _, v := range voices {
		if v.ID == id {
			return v.Name
		}
	}
	return id
}
