package suumo

import (
	"testing"

	"github.com/stretchr/testify/require"
)

const searchPageURL = "https://suumo.jp/chintai/tokyo/ek_17640/"

const resultsFixture = `<!DOCTYPE html>
<html><body>
<div class="cassetteitem">
  <div class="cassetteitem_content">
    <h2 class="cassetteitem_content-title">グランドメゾン渋谷</h2>
    <ul>
      <li class="cassetteitem_detail-col1">東京都渋谷区神南１</li>
      <li class="cassetteitem_detail-col2">ＪＲ山手線/渋谷駅 歩5分</li>
      <li class="cassetteitem_detail-col3">築8年 10階建</li>
    </ul>
  </div>
  <table class="cassetteitem_other">
    <tbody>
      <tr class="js-cassette_link">
        <td class="ui-text--midium">3階</td>
        <td><span class="cassetteitem_price--rent">8.5万円</span>
            <span class="cassetteitem_price--administration">5000円</span></td>
        <td><span class="cassetteitem_price--deposit">8.5万円</span></td>
        <td><span class="cassetteitem_madori">1K</span>
            <span class="cassetteitem_menseki">25.5m²</span></td>
        <td><a href="/chintai/jnc_000000001/">詳細を見る</a></td>
      </tr>
      <tr class="js-cassette_link">
        <td class="ui-text--midium">5階</td>
        <td><span class="cassetteitem_price--rent">9.2万円</span>
            <span class="cassetteitem_price--administration">-</span></td>
        <td><span class="cassetteitem_price--deposit">-</span></td>
        <td><span class="cassetteitem_madori">1DK</span>
            <span class="cassetteitem_menseki">30m²</span></td>
        <td><a href="/chintai/jnc_000000002/">詳細を見る</a></td>
      </tr>
    </tbody>
  </table>
</div>
<div class="cassetteitem">
  <div class="cassetteitem_content">
    <h2 class="cassetteitem_content-title">コーポ神南</h2>
    <ul>
      <li class="cassetteitem_detail-col1">東京都渋谷区宇田川町</li>
      <li class="cassetteitem_detail-col2">ＪＲ山手線/渋谷駅 歩9分</li>
      <li class="cassetteitem_detail-col3">新築 3階建</li>
    </ul>
  </div>
  <table class="cassetteitem_other">
    <tbody>
      <tr class="js-cassette_link">
        <td class="ui-text--midium">2階</td>
        <td><span class="cassetteitem_price--rent">12万円</span></td>
        <td><span class="cassetteitem_price--deposit">12万円</span></td>
        <td><span class="cassetteitem_madori">1LDK</span>
            <span class="cassetteitem_menseki">40.2m²</span></td>
        <td><a href="/chintai/jnc_000000003/">詳細を見る</a></td>
      </tr>
    </tbody>
  </table>
</div>
<div class="pagination pagination_set-nav">
  <p class="pagination-parts">1ページ目</p>
  <p><a href="?page=2">次へ</a></p>
</div>
</body></html>`

func TestExtractListings(t *testing.T) {
	result, err := ExtractListings(resultsFixture, searchPageURL, "渋谷")
	require.NoError(t, err)
	require.Len(t, result.Listings, 3)

	first := result.Listings[0]
	require.Equal(t, "グランドメゾン渋谷", first.BuildingTitle)
	require.Equal(t, "東京都渋谷区神南１", first.Address)
	require.Equal(t, "ＪＲ山手線/渋谷駅 歩5分", first.Access)
	require.Equal(t, "築8年 10階建", first.BuildingAgeArea)
	require.Equal(t, "3階", first.Floor)
	require.Equal(t, "8.5万円", first.Rent)
	require.Equal(t, "5000円", first.AdminFee)
	require.Equal(t, "8.5万円", first.DepositKeyMoney)
	require.Equal(t, "1K", first.Layout)
	require.Equal(t, "25.5m²", first.Area)
	require.Equal(t, "https://suumo.jp/chintai/jnc_000000001/", first.DetailURL)
	require.Equal(t, "渋谷", first.SearchStation)
	require.False(t, first.ScrapedAt.IsZero())

	// Building fields repeat across the block's rooms.
	second := result.Listings[1]
	require.Equal(t, "グランドメゾン渋谷", second.BuildingTitle)
	require.Equal(t, "9.2万円", second.Rent)

	third := result.Listings[2]
	require.Equal(t, "コーポ神南", third.BuildingTitle)
	require.Equal(t, "新築 3階建", third.BuildingAgeArea)
	require.Empty(t, third.AdminFee)

	require.Equal(t, "https://suumo.jp/chintai/tokyo/ek_17640/?page=2", result.NextPageURL)
}

func TestExtractListingsLastPage(t *testing.T) {
	fixture := `<html><body>
<div class="cassetteitem">
  <h2 class="cassetteitem_content-title">コーポ神南</h2>
  <li class="cassetteitem_detail-col1">東京都渋谷区宇田川町</li>
  <table><tbody>
    <tr class="js-cassette_link">
      <td><span class="cassetteitem_price--rent">6万円</span></td>
      <td><a href="https://suumo.jp/chintai/jnc_000000009/">詳細</a></td>
    </tr>
  </tbody></table>
</div>
<div class="pagination"><p class="pagination-parts">3ページ目</p></div>
</body></html>`

	result, err := ExtractListings(fixture, searchPageURL, "渋谷")
	require.NoError(t, err)
	require.Len(t, result.Listings, 1)
	require.Empty(t, result.NextPageURL)
}

func TestExtractListingsNoResultsPage(t *testing.T) {
	fixture := `<html><body>
<div class="error_pop">条件に一致する物件は見つかりませんでした。</div>
</body></html>`

	result, err := ExtractListings(fixture, searchPageURL, "渋谷")
	require.NoError(t, err)
	require.Empty(t, result.Listings)
	require.Empty(t, result.NextPageURL)
}

func TestExtractListingsUnrecognizablePage(t *testing.T) {
	fixture := `<html><body><p>メンテナンス中です</p></body></html>`

	_, err := ExtractListings(fixture, searchPageURL, "渋谷")
	require.Error(t, err)
	require.True(t, IsPermanent(err), "unrecognizable markup should be permanent: %v", err)
}

func TestExtractListingsMissingFieldsTolerated(t *testing.T) {
	fixture := `<html><body>
<div class="cassetteitem">
  <h2 class="cassetteitem_content-title">データ欠損ハイツ</h2>
  <table><tbody>
    <tr class="js-cassette_link">
      <td><a href="/chintai/jnc_000000042/">詳細</a></td>
    </tr>
  </tbody></table>
</div>
</body></html>`

	result, err := ExtractListings(fixture, searchPageURL, "渋谷")
	require.NoError(t, err)
	require.Len(t, result.Listings, 1)

	raw := result.Listings[0]
	require.Equal(t, "データ欠損ハイツ", raw.BuildingTitle)
	require.Empty(t, raw.Rent)
	require.Empty(t, raw.Area)
	require.Equal(t, "https://suumo.jp/chintai/jnc_000000042/", raw.DetailURL)
}
